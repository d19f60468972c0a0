//go:build unix

package rasource

import (
	"os"

	"golang.org/x/sys/unix"
)

// canRead reports whether path names a regular file this process may read.
func canRead(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.R_OK) == nil
}
