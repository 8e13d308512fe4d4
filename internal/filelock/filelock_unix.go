//go:build !windows

package filelock

import (
	"errors"
	"syscall"
)

// Lock acquires an exclusive lock, blocking until it is available
func (fl *FileLock) Lock() error {
	f, err := fl.open()
	if err != nil {
		return err
	}
	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
		if err != syscall.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return err
	}
	fl.f = f
	return nil
}

// TryLock acquires an exclusive lock without blocking. It returns false if
// another holder has the lock.
func (fl *FileLock) TryLock() (bool, error) {
	f, err := fl.open()
	if err != nil {
		return false, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return false, nil
		}
		return false, err
	}
	fl.f = f
	return true, nil
}

// Unlock releases the lock
func (fl *FileLock) Unlock() error {
	if fl.f == nil {
		return nil
	}
	f := fl.f
	fl.f = nil
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return f.Close()
}
