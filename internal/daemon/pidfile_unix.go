//go:build !windows

package daemon

import "syscall"

// processAlive tests for process existence with signal 0.
func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
