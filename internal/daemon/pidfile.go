// Package daemon guards long-running brd processes with a pidfile. The
// store runs SQLite on a single connection, so two servers pointed at the
// same database would contend for it.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFile tracks a running process by path.
type PIDFile struct {
	path string
}

// New creates a PIDFile manager for the given path.
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire claims the pidfile for the current process. It fails when the
// file already names a live process; a stale file from a dead process is
// overwritten.
func (p *PIDFile) Acquire() error {
	if pid, running := p.IsRunning(); running {
		return fmt.Errorf("already running with PID %d (pidfile %s)", pid, p.path)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create pidfile directory: %w", err)
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

// Release removes the pidfile. Missing files are not an error so Release
// is safe to defer unconditionally.
func (p *PIDFile) Release() error {
	err := os.Remove(p.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadPID reads the PID recorded in the file.
func (p *PIDFile) ReadPID() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pidfile content: %w", err)
	}
	return pid, nil
}

// IsRunning reports whether the pidfile names a live process.
func (p *PIDFile) IsRunning() (int, bool) {
	pid, err := p.ReadPID()
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, processAlive(pid)
}
