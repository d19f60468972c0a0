//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// New creates a read-only mapping of the first length bytes of the file
// behind fd. The caller keeps ownership of fd.
func New(fd uintptr, length int64) (*Map, error) {
	n, err := checkLength(length)
	if err != nil {
		return nil, err
	}

	maxSizeHigh := uint32(uint64(length) >> 32)
	maxSizeLow := uint32(length)

	mapping, err := windows.CreateFileMapping(windows.Handle(fd), nil, windows.PAGE_READONLY, maxSizeHigh, maxSizeLow, nil)
	if err != nil {
		return nil, &Error{Op: OpMap, Err: err}
	}

	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_READ, 0, 0, uintptr(n))
	if err != nil {
		_ = windows.CloseHandle(mapping)
		return nil, &Error{Op: OpMap, Err: err}
	}

	return &Map{
		data:    unsafe.Slice((*byte)(unsafe.Pointer(addr)), n),
		size:    length,
		mapping: uintptr(mapping),
	}, nil
}

// Close releases the memory mapping. Closing an unmapped Map is a no-op.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}

	var firstErr error
	if err := windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&m.data[0]))); err != nil {
		firstErr = &Error{Op: OpUnmap, Err: err}
	}
	if err := windows.CloseHandle(windows.Handle(m.mapping)); err != nil && firstErr == nil {
		firstErr = &Error{Op: OpUnmap, Err: err}
	}
	m.data = nil
	m.size = 0
	m.mapping = 0
	return firstErr
}

// AdviseRandom is a no-op on Windows.
func (m *Map) AdviseRandom() error {
	if m.data == nil {
		return ErrNotMapped
	}
	return nil
}
