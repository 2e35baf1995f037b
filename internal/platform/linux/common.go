//go:build linux

package linux

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"strings"
	"time"
)

// gsettings can block on a wedged dconf service.
const commandTimeout = 5 * time.Second

func hasCommand(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// runVerbose runs name and returns its trimmed combined output.
func runVerbose(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return strings.TrimSpace(buf.String()), err
}

func runBestEffort(name string, args ...string) {
	if out, err := runVerbose(name, args...); err != nil {
		log.Printf("linux: %s %s failed: %v (output: %q)", name, strings.Join(args, " "), err, out)
	}
}
