//go:build !windows

package action

import (
	"os"
	"syscall"
)

// fileInUse probes whether another process holds an exclusive lock on the
// file. A file that cannot be opened for writing is treated as occupied.
func fileInUse(path string) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return !os.IsNotExist(err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return true
	}
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return false
}
