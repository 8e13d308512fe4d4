//go:build windows

package filelock

import (
	"os"
	"syscall"
	"unsafe"
)

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = modkernel32.NewProc("LockFileEx")
	procUnlockFileEx = modkernel32.NewProc("UnlockFileEx")
)

const (
	lockfileFailImmediately = 0x00000001
	lockfileExclusiveLock   = 0x00000002

	errorLockViolation syscall.Errno = 33
)

func lockFileEx(f *os.File, flags uintptr) error {
	var ol syscall.Overlapped
	r1, _, err := procLockFileEx.Call(
		uintptr(f.Fd()),
		flags,
		0,
		1, 0,
		uintptr(unsafe.Pointer(&ol)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}

// Lock acquires an exclusive lock, blocking until it is available
func (fl *FileLock) Lock() error {
	f, err := fl.open()
	if err != nil {
		return err
	}
	if err := lockFileEx(f, lockfileExclusiveLock); err != nil {
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
	if err := lockFileEx(f, lockfileExclusiveLock|lockfileFailImmediately); err != nil {
		f.Close()
		if err == errorLockViolation {
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

	var ol syscall.Overlapped
	procUnlockFileEx.Call(
		uintptr(f.Fd()),
		0,
		1, 0,
		uintptr(unsafe.Pointer(&ol)),
	)
	return f.Close()
}
