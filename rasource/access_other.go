//go:build !unix

package rasource

import "os"

// canRead reports whether path names a regular file this process may read.
func canRead(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
