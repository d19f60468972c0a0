//go:build !unix && !windows

package mmap

import "errors"

// New always fails with an OpMap error: this platform has no mmap.
func New(_ uintptr, length int64) (*Map, error) {
	if _, err := checkLength(length); err != nil {
		return nil, err
	}
	return nil, &Error{Op: OpMap, Err: errors.ErrUnsupported}
}

// Close clears the region. There is never a mapping to release.
func (m *Map) Close() error {
	m.data = nil
	m.size = 0
	return nil
}

// AdviseRandom always returns ErrNotMapped.
func (m *Map) AdviseRandom() error {
	return ErrNotMapped
}
