// Package filelock provides advisory file locks shared between processes.
// Platform-specific implementations are in filelock_unix.go and
// filelock_windows.go.
package filelock

import "os"

// FileLock is an exclusive advisory lock on a file
type FileLock struct {
	path string
	f    *os.File
}

// New creates a lock for the given path. The file is created on first use.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the lock file location
func (fl *FileLock) Path() string {
	return fl.path
}

func (fl *FileLock) open() (*os.File, error) {
	return os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
}
