package rasource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/justapithecus/rasource/internal/streamutil"
)

func resolveAll(t *testing.T, r Resolver, name string) ([]byte, error) {
	t.Helper()
	rc, err := r.Resolve(context.Background(), name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// -----------------------------------------------------------------------------
// Directory Resolver
// -----------------------------------------------------------------------------

func TestNewDirResolver_RequiresDirectory(t *testing.T) {
	if _, err := NewDirResolver(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
	if _, err := NewDirResolver(writeTemp(t, []byte("x"))); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist for file root, got %v", err)
	}
}

func TestDirResolver_Resolve(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "fonts"), 0o755); err != nil {
		t.Fatal(err)
	}
	data := pattern(500)
	if err := os.WriteFile(filepath.Join(root, "fonts", "Times.afm"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewDirResolver(root)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"fonts/Times.afm", "/fonts/Times.afm", "fonts/../fonts/Times.afm"} {
		got, err := resolveAll(t, r, name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("%s: content mismatch", name)
		}
	}

	tests := []struct {
		name string
		want error
	}{
		{"fonts/missing.afm", ErrNotFound},
		{"fonts", ErrNotFound},
		{"", ErrInvalidName},
		{"/", ErrInvalidName},
		{".", ErrInvalidName},
		{"..", ErrInvalidName},
		{"../secret", ErrInvalidName},
		{"fonts/../../secret", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.name)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// fs.FS Resolver
// -----------------------------------------------------------------------------

func TestFSResolver_Resolve(t *testing.T) {
	data := pattern(300)
	r := NewFSResolver(fstest.MapFS{
		"cmaps/Identity-H": {Data: data},
		"cmaps/empty":      {Data: nil},
	})

	rc, err := r.Resolve(context.Background(), "/cmaps/Identity-H")
	if err != nil {
		t.Fatal(err)
	}
	if got := streamutil.SizeHint(rc); got != int64(len(data)) {
		t.Errorf("SizeHint = %d, want %d", got, len(data))
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if err := rc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("content mismatch")
	}

	if got, err := resolveAll(t, r, "cmaps/empty"); err != nil || len(got) != 0 {
		t.Errorf("empty resource = %d bytes, %v", len(got), err)
	}

	tests := []struct {
		name string
		want error
	}{
		{"cmaps/missing", ErrNotFound},
		{"cmaps", ErrNotFound},
		{"", ErrInvalidName},
		{"../cmaps/Identity-H", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.name)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Chain Resolver
// -----------------------------------------------------------------------------

func TestChainResolver(t *testing.T) {
	first := NewFSResolver(fstest.MapFS{"a": {Data: []byte("first a")}})
	second := NewFSResolver(fstest.MapFS{
		"a": {Data: []byte("second a")},
		"b": {Data: []byte("second b")},
	})
	chain := NewChainResolver(first, second)

	tests := []struct {
		name string
		want string
	}{
		{"a", "first a"},
		{"b", "second b"},
	}
	for _, tt := range tests {
		got, err := resolveAll(t, chain, tt.name)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if string(got) != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := chain.Resolve(context.Background(), "c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := NewChainResolver().Resolve(context.Background(), "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty chain: expected ErrNotFound, got %v", err)
	}
}

func TestChainResolver_SkipsEmptyResult(t *testing.T) {
	empty := ResolverFunc(func(context.Context, string) (io.ReadCloser, error) {
		return nil, nil
	})
	backing := NewFSResolver(fstest.MapFS{"a": {Data: []byte("backing a")}})

	got, err := resolveAll(t, NewChainResolver(empty, backing), "a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(got) != "backing a" {
		t.Errorf("got %q, want %q", got, "backing a")
	}

	if _, err := NewChainResolver(empty).Resolve(context.Background(), "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChainResolver_StopsOnFailure(t *testing.T) {
	boom := errors.New("permission denied")
	calls := 0
	failing := ResolverFunc(func(context.Context, string) (io.ReadCloser, error) {
		calls++
		return nil, boom
	})
	never := ResolverFunc(func(context.Context, string) (io.ReadCloser, error) {
		t.Error("resolver after a failure must not be consulted")
		return nil, ErrNotFound
	})

	_, err := NewChainResolver(failing, never).Resolve(context.Background(), "a")
	if !errors.Is(err, boom) {
		t.Errorf("expected failure to propagate, got %v", err)
	}
	if calls != 1 {
		t.Errorf("failing resolver called %d times", calls)
	}
}

// -----------------------------------------------------------------------------
// Compressed Resolver
// -----------------------------------------------------------------------------

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestCompressedResolver(t *testing.T) {
	plain := []byte("plain resource")
	gz := pattern(3 * streamutil.ChunkSize)
	zst := pattern(2*streamutil.ChunkSize + 5)

	inner := NewFSResolver(fstest.MapFS{
		"plain.txt":       {Data: plain},
		"glyphs.bin.gz":   {Data: gzipBytes(t, gz)},
		"cmap.bin.zst":    {Data: zstdBytes(t, zst)},
		"both.bin":        {Data: []byte("uncompressed wins")},
		"both.bin.gz":     {Data: gzipBytes(t, []byte("compressed"))},
		"corrupt.bin.gz":  {Data: []byte("not gzip")},
		"raw-only.bin.gz": {Data: gzipBytes(t, []byte("raw"))},
	})
	r := NewCompressedResolver(inner)

	tests := []struct {
		name string
		want []byte
	}{
		{"plain.txt", plain},
		{"glyphs.bin", gz},
		{"cmap.bin", zst},
		{"both.bin", []byte("uncompressed wins")},
		{"raw-only.bin.gz", gzipBytes(t, []byte("raw"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveAll(t, r, tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Error("content mismatch")
			}
		})
	}

	if _, err := r.Resolve(context.Background(), "missing.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err := r.Resolve(context.Background(), "corrupt.bin")
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Op != "decompress" {
		t.Errorf("expected decompress error, got %v", err)
	}
}

func TestCompressedResolver_OnlyConfiguredDecompressors(t *testing.T) {
	inner := NewFSResolver(fstest.MapFS{
		"cmap.bin.zst": {Data: zstdBytes(t, []byte("zstd"))},
	})
	r := NewCompressedResolver(inner, NewGzipDecompressor())

	if _, err := r.Resolve(context.Background(), "cmap.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound with gzip only, got %v", err)
	}
}

func TestCompressedResolver_ThroughFactory(t *testing.T) {
	data := pattern(10000)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "font.bin.gz"), gzipBytes(t, data), 0o644); err != nil {
		t.Fatal(err)
	}
	dir, err := NewDirResolver(root)
	if err != nil {
		t.Fatal(err)
	}

	f := NewFactory(Config{Resolver: NewCompressedResolver(dir)})
	src, err := f.FromPathOrURL(t.Context(), "font.bin")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	mustContent(t, src, data)
}
