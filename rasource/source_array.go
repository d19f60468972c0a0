package rasource

import (
	"io"
	"sync/atomic"
)

// arraySource implements Source over an in-memory byte slice.
// It is safe for concurrent reads.
type arraySource struct {
	data   []byte
	closed atomic.Bool
}

// NewArraySource wraps data in a Source without copying it. The caller must
// not modify data while the source is in use.
func NewArraySource(data []byte) Source {
	return &arraySource{data: data}
}

func (a *arraySource) source() {}

func (a *arraySource) Kind() Kind { return KindArray }

func (a *arraySource) Length() int64 { return int64(len(a.data)) }

func (a *arraySource) ByteAt(pos int64) (byte, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}
	if pos < 0 {
		return 0, ErrInvalidOffset
	}
	if pos >= int64(len(a.data)) {
		return 0, io.EOF
	}
	return a.data[pos], nil
}

func (a *arraySource) ReadAt(p []byte, pos int64) (int, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}
	if pos < 0 {
		return 0, ErrInvalidOffset
	}
	if pos >= int64(len(a.data)) {
		return 0, io.EOF
	}
	n := copy(p, a.data[pos:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close marks the source closed. The buffer itself stays with the caller
// that supplied it.
func (a *arraySource) Close() error {
	a.closed.Store(true)
	return nil
}
