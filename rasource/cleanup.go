package rasource

import "io"

// closer returns a function that closes c, discarding the error.
// Use with defer for read-only streams whose content has already been
// consumed, where a close error cannot change the outcome.
func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// stackedReader is a stream assembled from layers (an archive entry inside
// an archive file, a decompressor over a raw stream). Closing it closes
// every layer, innermost first.
type stackedReader struct {
	io.Reader
	size    int64 // -1 when unknown
	closers []io.Closer
}

// Size reports the expected stream length, or -1.
func (s *stackedReader) Size() int64 {
	return s.size
}

func (s *stackedReader) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// closerFunc adapts a function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }
