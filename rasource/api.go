// Package rasource provides random-access byte sources over in-memory
// buffers, memory-mapped files, plain file handles and network-fetched blobs.
//
// A Factory selects the backing strategy for a descriptor and falls back to
// plain file reads when a memory map cannot be established. Every source
// exposes the same offset-addressed read surface, so the strategy is
// invisible at the content level.
package rasource

import (
	"errors"
	"io"
)

// -----------------------------------------------------------------------------
// Source interface
// -----------------------------------------------------------------------------

// Source is a read-only view over a fixed extent of bytes.
//
// Sources are created by a Factory or by NewArraySource and must be released
// with Close by their sole owner. Whether a source may be read from several
// goroutines at once depends on its Kind; see Kind.ConcurrentReads.
type Source interface {
	// Kind reports the backing strategy of the source.
	Kind() Kind

	// Length returns the number of addressable bytes. It never changes.
	Length() int64

	// ByteAt returns the byte at pos.
	// Returns io.EOF if pos >= Length().
	ByteAt(pos int64) (byte, error)

	// ReadAt copies bytes starting at pos into p, following the io.ReaderAt
	// contract. Returns 0, io.EOF if pos >= Length(); a short count is only
	// returned at the end of the source, together with io.EOF.
	ReadAt(p []byte, pos int64) (int, error)

	// Close releases the resources owned by the source. Reads after Close
	// fail with ErrClosed. Close is idempotent.
	Close() error

	// source seals the interface to the variants in this package.
	source()
}

// Kind identifies the backing strategy of a Source.
type Kind uint8

const (
	// KindArray is an in-memory byte slice.
	KindArray Kind = iota + 1

	// KindMapped is a memory-mapped file.
	KindMapped

	// KindFile is an open file read with seek-then-read.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindMapped:
		return "mapped"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// ConcurrentReads reports whether sources of this kind may be read from
// several goroutines without external locking. File sources share an
// implicit file position across reads and need a mutex around each read.
func (k Kind) ConcurrentReads() bool {
	switch k {
	case KindArray, KindMapped:
		return true
	case KindFile:
		return false
	default:
		return false
	}
}

// ReadRange returns up to count bytes starting at pos.
// Returns io.EOF if pos >= src.Length(). Fewer than count bytes are returned
// only when the range runs past the end of the source.
func ReadRange(src Source, pos int64, count int) ([]byte, error) {
	if pos < 0 || count < 0 {
		return nil, ErrInvalidOffset
	}
	// A closed source reports ErrClosed at every position, including the end.
	if _, err := src.ReadAt(nil, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	length := src.Length()
	if pos >= length {
		return nil, io.EOF
	}

	n := int64(count)
	if remaining := length - pos; n > remaining {
		n = remaining
	}

	buf := make([]byte, n)
	got, err := src.ReadAt(buf, pos)
	if err != nil && (!errors.Is(err, io.EOF) || got == 0) {
		return nil, err
	}
	return buf[:got], nil
}

// NewReader returns a sequential reader over the whole source. The reader
// tracks its own position; the source is only ever addressed by offset.
func NewReader(src Source) *io.SectionReader {
	return io.NewSectionReader(src, 0, src.Length())
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Error sentinel values for common conditions.
var (
	// ErrNotFound indicates a descriptor names no local file, no supported
	// URL and no resource known to the configured Resolver.
	ErrNotFound = errNotFound{}

	// ErrClosed indicates a read on a source that has been closed.
	ErrClosed = errClosed{}

	// ErrInvalidOffset indicates a negative position or count.
	ErrInvalidOffset = errInvalidOffset{}

	// ErrInvalidName indicates a resource name that is empty or escapes its root.
	ErrInvalidName = errInvalidName{}

	// ErrUnsupportedScheme indicates a URL scheme the factory cannot open.
	ErrUnsupportedScheme = errUnsupportedScheme{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "not found as file or resource" }

type errClosed struct{}

func (errClosed) Error() string { return "source closed" }

type errInvalidOffset struct{}

func (errInvalidOffset) Error() string { return "invalid offset" }

type errInvalidName struct{}

func (errInvalidName) Error() string { return "invalid resource name" }

type errUnsupportedScheme struct{}

func (errUnsupportedScheme) Error() string { return "unsupported url scheme" }

// Error records a failed operation and the descriptor it applied to.
// Failures from the filesystem, the network and archives are returned
// wrapped in an Error; the original cause is available through Unwrap.
type Error struct {
	Op   string // "open", "read", "fetch", "resolve", "parse", ...
	Name string // descriptor, path or URL; may be empty
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return "rasource: " + e.Op + ": " + e.Err.Error()
	}
	return "rasource: " + e.Op + " " + e.Name + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
