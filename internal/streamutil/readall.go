// Package streamutil materializes streams into memory.
package streamutil

import (
	"bytes"
	"io"
	"io/fs"
)

// ChunkSize is the initial buffer growth step when the stream length is
// unknown.
const ChunkSize = 8 << 10

// maxPrealloc caps how much is preallocated on the word of a size hint
// alone. Larger streams grow as bytes arrive.
const maxPrealloc = 64 * ChunkSize

// ReadAll reads r until EOF and returns the content, trimmed to its length.
// The result is never nil. If r reports its size through Size, Len or Stat,
// the buffer is preallocated from that hint, up to 512 KiB.
func ReadAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer

	hint := SizeHint(r)
	switch {
	case hint > 0 && hint < maxPrealloc:
		// One extra byte so the final EOF read does not force a regrow.
		buf.Grow(int(hint) + 1)
	case hint >= maxPrealloc:
		buf.Grow(maxPrealloc)
	default:
		buf.Grow(ChunkSize)
	}

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return trim(buf.Bytes()), nil
}

// SizeHint returns the expected stream length, or -1 when r does not
// report one.
func SizeHint(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Size() int64 }:
		return v.Size()
	case interface{ Len() int }:
		return int64(v.Len())
	case interface{ Stat() (fs.FileInfo, error) }:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return -1
		}
		return info.Size()
	}
	return -1
}

// trim drops spare capacity larger than an eighth of the content.
func trim(b []byte) []byte {
	if len(b) == 0 {
		return []byte{}
	}
	if cap(b)-len(b) > len(b)/8 {
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}
	return b[:len(b):len(b)]
}

// Sized attaches a size hint to a stream whose length is known out of band,
// such as an HTTP body with a Content-Length header.
type Sized struct {
	io.ReadCloser
	N int64
}

// Size returns the attached hint.
func (s *Sized) Size() int64 {
	return s.N
}
