package sar

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"
)

const (
	DefaultBinary = "sar"

	// waitDelay bounds how long Wait blocks on a sampler that ignores SIGTERM.
	waitDelay = 5 * time.Second
)

// Args returns the sar arguments collecting per-device network, all CPU,
// paging and memory statistics every interval seconds.
func Args(interval int) []string {
	return []string{"-n", "DEV", "-u", "ALL", "-B", "-r", strconv.Itoa(interval)}
}

// Environ returns base with the locale forced to print a 24-hour clock and
// dot decimal separators.
func Environ(base []string) []string {
	env := make([]string, 0, len(base)+2)
	env = append(env, base...)
	return append(env, "LC_TIME=POSIX", "LC_NUMERIC=POSIX")
}

// NewCommand builds the sar command. Cancelling ctx sends SIGTERM to sar.
func NewCommand(ctx context.Context, binary string, interval int) *exec.Cmd {
	if binary == "" {
		binary = DefaultBinary
	}
	cmd := exec.CommandContext(ctx, binary, Args(interval)...)
	cmd.Env = Environ(os.Environ())
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = waitDelay
	return cmd
}
