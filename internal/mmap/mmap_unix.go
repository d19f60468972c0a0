//go:build unix

package mmap

import (
	"golang.org/x/sys/unix"
)

// New creates a read-only shared mapping of the first length bytes of the
// file behind fd. The caller keeps ownership of fd.
func New(fd uintptr, length int64) (*Map, error) {
	n, err := checkLength(length)
	if err != nil {
		return nil, err
	}

	data, err := unix.Mmap(int(fd), 0, n, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, &Error{Op: OpMap, Err: err}
	}

	return &Map{
		data: data,
		size: length,
	}, nil
}

// Close releases the memory mapping. Closing an unmapped Map is a no-op.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}

	err := unix.Munmap(m.data)
	m.data = nil
	m.size = 0
	if err != nil {
		return &Error{Op: OpUnmap, Err: err}
	}
	return nil
}

// AdviseRandom hints that pages will be accessed randomly.
func (m *Map) AdviseRandom() error {
	if m.data == nil {
		return ErrNotMapped
	}
	return unix.Madvise(m.data, unix.MADV_RANDOM)
}
