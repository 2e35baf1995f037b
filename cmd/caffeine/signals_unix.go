//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop the daemon and release every inhibitor.
func shutdownSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
		syscall.SIGQUIT,
	}
}
