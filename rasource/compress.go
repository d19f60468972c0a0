package rasource

import (
	"context"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Decompressor unwraps a compressed resource stream.
type Decompressor interface {
	// Name returns the decompressor identifier (for example, "gzip" or "zstd").
	Name() string

	// Extension returns the file extension of compressed resources (for example, ".gz").
	Extension() string

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Gzip Decompressor
// -----------------------------------------------------------------------------

// gzipDecompressor implements Decompressor for gzip streams.
type gzipDecompressor struct{}

// NewGzipDecompressor creates a gzip decompressor for ".gz" resources.
func NewGzipDecompressor() Decompressor {
	return &gzipDecompressor{}
}

func (g *gzipDecompressor) Name() string {
	return "gzip"
}

func (g *gzipDecompressor) Extension() string {
	return ".gz"
}

func (g *gzipDecompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// -----------------------------------------------------------------------------
// Zstd Decompressor
// -----------------------------------------------------------------------------

// zstdDecompressor implements Decompressor for Zstandard streams.
type zstdDecompressor struct{}

// NewZstdDecompressor creates a zstd decompressor for ".zst" resources.
func NewZstdDecompressor() Decompressor {
	return &zstdDecompressor{}
}

func (z *zstdDecompressor) Name() string {
	return "zstd"
}

func (z *zstdDecompressor) Extension() string {
	return ".zst"
}

func (z *zstdDecompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// -----------------------------------------------------------------------------
// Compressed Resolver
// -----------------------------------------------------------------------------

// compressedResolver serves compressed copies of resources transparently.
type compressedResolver struct {
	inner         Resolver
	decompressors []Decompressor
}

// NewCompressedResolver wraps inner so that a resource missing under its own
// name is looked up again under name+Extension() for each decompressor, and
// returned decompressed. With no decompressors, gzip and zstd are tried.
func NewCompressedResolver(inner Resolver, decompressors ...Decompressor) Resolver {
	if len(decompressors) == 0 {
		decompressors = []Decompressor{NewGzipDecompressor(), NewZstdDecompressor()}
	}
	return &compressedResolver{inner: inner, decompressors: decompressors}
}

func (c *compressedResolver) Resolve(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := c.inner.Resolve(ctx, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return rc, err
	}

	for _, d := range c.decompressors {
		raw, err := c.inner.Resolve(ctx, name+d.Extension())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		dr, err := d.Decompress(raw)
		if err != nil {
			_ = raw.Close()
			return nil, &Error{Op: "decompress", Name: name + d.Extension(), Err: err}
		}
		return &stackedReader{Reader: dr, size: -1, closers: []io.Closer{dr, raw}}, nil
	}

	return nil, ErrNotFound
}
