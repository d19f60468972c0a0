package rasource

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync/atomic"

	"github.com/justapithecus/rasource/internal/mmap"
)

// mappedSource implements Source over a read-only memory map of a file.
// It owns both the mapping and the file descriptor.
//
// Reads are addressed by explicit offset and touch no shared mutable state,
// so concurrent reads are lock-free. Close must not run concurrently with
// reads.
type mappedSource struct {
	f      *os.File
	m      *mmap.Map // nil for an empty file
	length int64
	closed atomic.Bool
}

// openMapped maps the whole file at path. Failures to establish the mapping
// carry an *mmap.Error with Op mmap.OpMap.
func openMapped(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Name: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &Error{Op: "stat", Name: path, Err: err}
	}

	s := &mappedSource{f: f, length: info.Size()}
	if s.length == 0 {
		// mmap rejects empty regions; an empty file needs no mapping.
		return s, nil
	}

	m, err := mmap.New(f.Fd(), s.length)
	if err != nil {
		_ = f.Close()
		return nil, &Error{Op: "map", Name: path, Err: err}
	}
	_ = m.AdviseRandom()
	s.m = m

	return s, nil
}

func (s *mappedSource) source() {}

func (s *mappedSource) Kind() Kind { return KindMapped }

func (s *mappedSource) Length() int64 { return s.length }

func (s *mappedSource) ByteAt(pos int64) (byte, error) {
	var b [1]byte
	if _, err := s.ReadAt(b[:], pos); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *mappedSource) ReadAt(p []byte, pos int64) (n int, err error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if pos < 0 {
		return 0, ErrInvalidOffset
	}
	if pos >= s.length {
		return 0, io.EOF
	}

	// An I/O error on the backing storage, or the file shrinking under the
	// mapping, surfaces as a fault on access. Convert it to an error
	// instead of taking the process down with SIGBUS.
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			n = 0
			err = &Error{Op: "read", Name: s.f.Name(), Err: fmt.Errorf("page fault at offset %d: %v", pos, r)}
		}
	}()

	n = copy(p, s.m.Data()[pos:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the region and closes the file descriptor.
func (s *mappedSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	var firstErr error
	if s.m != nil {
		if err := s.m.Close(); err != nil {
			firstErr = &Error{Op: "unmap", Name: s.f.Name(), Err: err}
		}
	}
	if err := s.f.Close(); err != nil && firstErr == nil {
		firstErr = &Error{Op: "close", Name: s.f.Name(), Err: err}
	}
	return firstErr
}
