//go:build windows

package daemon

import (
	"os"
	"syscall"
)

// processAlive is a best-effort check on Windows, where FindProcess
// succeeds for any PID. Signal 0 probes liveness without delivering.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
