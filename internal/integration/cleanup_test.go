package integration

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "CAFFEINE_SIGNAL_HELPER"

// TestCleanupOnSignal runs a daemon in a child process and verifies it hands
// back every lease and exits cleanly on each shutdown signal.
func TestCleanupOnSignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signals are not deliverable on Windows")
	}
	if testing.Short() {
		t.Skip("skipping cleanup test in short mode")
	}

	for _, sig := range shutdownSignals() {
		t.Run(sig.String(), func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=^TestSignalHelper$")
			cmd.Env = append(os.Environ(), helperEnv+"=1")
			stdout, err := cmd.StdoutPipe()
			require.NoError(t, err)
			require.NoError(t, cmd.Start())

			// The helper writes one byte once it holds a lease.
			buf := make([]byte, 1)
			_, err = stdout.Read(buf)
			require.NoError(t, err, "helper should report readiness")

			require.NoError(t, cmd.Process.Signal(sig))

			done := make(chan error, 1)
			go func() { done <- cmd.Wait() }()
			select {
			case err := <-done:
				assert.NoError(t, err, "helper should exit cleanly after %v", sig)
			case <-time.After(5 * time.Second):
				_ = cmd.Process.Kill()
				t.Fatal("helper did not exit within timeout")
			}
		})
	}
}

// TestSignalHelper is the child side of TestCleanupOnSignal. It exits 0 only
// if no lease is left after shutdown.
func TestSignalHelper(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	d := startDaemon(t, "")
	d.keeper.Toggle()
	deadline := time.Now().Add(eventually)
	for !d.keeper.Status().Inhibited {
		if time.Now().After(deadline) {
			os.Exit(3)
		}
		time.Sleep(10 * time.Millisecond)
	}
	os.Stdout.Write([]byte{'1'})

	<-ctx.Done()
	d.wait(t)
	if len(d.broker.Paths()) != 0 {
		os.Exit(2)
	}
	os.Exit(0)
}
