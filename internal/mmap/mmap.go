// Package mmap provides read-only memory mapping of whole files.
package mmap

import "errors"

// Map represents a read-only memory-mapped file region.
// This type wraps platform-specific mmap implementations.
type Map struct {
	data []byte // Mapped memory region
	size int64  // Mapped size
	// Windows-specific handle (only used on Windows, zero elsewhere)
	mapping uintptr
}

// Data returns the mapped byte slice. It is nil once the map is closed.
func (m *Map) Data() []byte {
	return m.data
}

// Size returns the mapped size.
func (m *Map) Size() int64 {
	return m.size
}

// Op names for Error.
const (
	// OpMap is the operation that establishes a mapping. An Error with this
	// Op means the mapping itself could not be created.
	OpMap = "mmap"

	// OpUnmap is the operation that releases a mapping.
	OpUnmap = "munmap"
)

// Error represents an mmap error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "mmap: " + e.Op + ": " + e.Err.Error()
	}
	return "mmap: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrInvalidSize = &Error{Op: "invalid size"}
	ErrNotMapped   = &Error{Op: "not mapped"}

	// ErrTooLarge is wrapped in an OpMap Error when the region does not fit
	// the address space of the process.
	ErrTooLarge = errors.New("region exceeds address space")
)

// IsMapFailure reports whether err came from the mapping call itself, as
// opposed to argument validation or a later unmap.
func IsMapFailure(err error) bool {
	var me *Error
	return errors.As(err, &me) && me.Op == OpMap
}

// checkLength validates a requested region length.
func checkLength(length int64) (int, error) {
	if length <= 0 {
		return 0, ErrInvalidSize
	}
	if length != int64(int(length)) {
		return 0, &Error{Op: OpMap, Err: ErrTooLarge}
	}
	return int(length), nil
}
