// Package testutil provides scratch-space helpers for examples.
package testutil

import (
	"os"
	"path/filepath"
)

// ScratchDir creates a temporary directory and returns it together with a
// function that removes it and everything inside. Removal errors are
// ignored.
//
// Usage:
//
//	dir, cleanup, err := testutil.ScratchDir()
//	if err != nil { ... }
//	defer cleanup()
func ScratchDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "rasource-example-*")
	if err != nil {
		return "", nil, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// WriteFile writes data to name inside dir and returns the full path.
func WriteFile(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
