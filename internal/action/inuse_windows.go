//go:build windows

package action

import "os"

// fileInUse probes whether another process holds the file open. Windows
// denies a write-mode open on a file opened without share-write, which is
// exactly the case that breaks a rename.
func fileInUse(path string) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return !os.IsNotExist(err)
	}
	f.Close()
	return false
}
