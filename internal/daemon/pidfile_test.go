package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brd-serve.pid")
	p := New(path)

	require.NoError(t, p.Acquire())

	pid, err := p.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, p.Release())
	_, err = p.ReadPID()
	assert.Error(t, err, "pidfile should be gone after release")
}

func TestAcquire_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "brd-serve.pid")
	p := New(path)

	require.NoError(t, p.Acquire())
	defer p.Release()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestAcquire_RejectsLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brd-serve.pid")

	// The current test process is live, so a second acquire must fail.
	require.NoError(t, New(path).Acquire())

	err := New(path).Acquire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestAcquire_OverwritesStalePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brd-serve.pid")

	// No live process has this PID on any realistic system.
	require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0o644))

	p := New(path)
	require.NoError(t, p.Acquire())

	pid, err := p.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestIsRunning_GarbageContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brd-serve.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o644))

	_, running := New(path).IsRunning()
	assert.False(t, running)
}

func TestRelease_MissingFileIsNoError(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "absent.pid"))
	assert.NoError(t, p.Release())
}
