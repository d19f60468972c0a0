package rasource

import (
	"errors"
	"io"
	"os"
)

// fileSource implements Source by seeking an open file to the requested
// offset and reading from there.
//
// fileSource is NOT safe for concurrent use: the seek and the read share the
// file's position, so callers must serialize reads.
type fileSource struct {
	f      *os.File
	length int64
	closed bool
}

// openFile opens path for seek-then-read access. The length is fixed at
// open time.
func openFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Name: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &Error{Op: "stat", Name: path, Err: err}
	}

	return &fileSource{f: f, length: info.Size()}, nil
}

func (s *fileSource) source() {}

func (s *fileSource) Kind() Kind { return KindFile }

func (s *fileSource) Length() int64 { return s.length }

func (s *fileSource) ByteAt(pos int64) (byte, error) {
	var b [1]byte
	if _, err := s.ReadAt(b[:], pos); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *fileSource) ReadAt(p []byte, pos int64) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if pos < 0 {
		return 0, ErrInvalidOffset
	}
	if pos >= s.length {
		return 0, io.EOF
	}

	want := len(p)
	if remaining := s.length - pos; int64(want) > remaining {
		want = int(remaining)
	}

	if _, err := s.f.Seek(pos, io.SeekStart); err != nil {
		return 0, &Error{Op: "seek", Name: s.f.Name(), Err: err}
	}

	n, err := io.ReadFull(s.f, p[:want])
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		// The file shrank after open.
		return n, io.EOF
	case err != nil:
		return n, &Error{Op: "read", Name: s.f.Name(), Err: err}
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close closes the file descriptor.
func (s *fileSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.f.Close(); err != nil {
		return &Error{Op: "close", Name: s.f.Name(), Err: err}
	}
	return nil
}
