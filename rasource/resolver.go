package rasource

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// -----------------------------------------------------------------------------
// Resolver interface
// -----------------------------------------------------------------------------

// Resolver maps a logical resource name to an open stream. The factory
// consults it for descriptors that name neither a readable local file nor a
// supported URL, typically resources bundled with an application.
//
// Names use forward slashes. A leading slash is ignored.
type Resolver interface {
	// Resolve opens the named resource.
	// Returns ErrNotFound if the resolver has no such resource.
	// Returns ErrInvalidName if the name is empty or escapes the resolver root.
	Resolve(ctx context.Context, name string) (io.ReadCloser, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, name string) (io.ReadCloser, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, name string) (io.ReadCloser, error) {
	return f(ctx, name)
}

// isMiss reports whether err means "not here" rather than a failure.
func isMiss(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidName)
}

// -----------------------------------------------------------------------------
// Directory Resolver
// -----------------------------------------------------------------------------

// dirResolver resolves names to files under a root directory.
type dirResolver struct {
	root string
}

// NewDirResolver creates a Resolver for files under root.
// The directory must exist.
func NewDirResolver(root string) (Resolver, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrNotExist
	}
	return &dirResolver{root: root}, nil
}

func (d *dirResolver) Resolve(_ context.Context, name string) (io.ReadCloser, error) {
	fullPath, err := d.safePath(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, ErrNotFound
	}
	return file, nil
}

// safePath validates a resource name and resolves it under the root.
// Rejects empty names, "." and anything that would escape the root.
//
// Note: This does not prevent symlink escapes. A symlink inside the root
// pointing outside can still be followed.
func (d *dirResolver) safePath(name string) (string, error) {
	trimmed := strings.TrimLeft(name, "/")
	if trimmed == "" {
		return "", ErrInvalidName
	}

	cleaned := filepath.Clean(filepath.FromSlash(trimmed))
	if cleaned == "." || filepath.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" {
		return "", ErrInvalidName
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidName
	}

	fullPath := filepath.Join(d.root, cleaned)

	absRoot, err := filepath.Abs(d.root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", ErrInvalidName
	}

	return fullPath, nil
}

// -----------------------------------------------------------------------------
// fs.FS Resolver
// -----------------------------------------------------------------------------

// fsResolver resolves names inside an fs.FS, such as an embed.FS.
type fsResolver struct {
	fsys fs.FS
}

// NewFSResolver creates a Resolver over fsys. Use it to serve resources
// compiled into the binary with embed.
func NewFSResolver(fsys fs.FS) Resolver {
	return &fsResolver{fsys: fsys}
}

func (r *fsResolver) Resolve(_ context.Context, name string) (io.ReadCloser, error) {
	cleaned := path.Clean(strings.TrimLeft(name, "/"))
	if cleaned == "." || !fs.ValidPath(cleaned) {
		return nil, ErrInvalidName
	}

	file, err := r.fsys.Open(cleaned)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, ErrNotFound
	}
	return &stackedReader{Reader: file, size: info.Size(), closers: []io.Closer{file}}, nil
}

// -----------------------------------------------------------------------------
// Chain Resolver
// -----------------------------------------------------------------------------

// chainResolver tries resolvers in order.
type chainResolver []Resolver

// NewChainResolver creates a Resolver that asks each resolver in turn and
// returns the first hit. A miss (ErrNotFound or ErrInvalidName) moves on to
// the next resolver; any other error stops the search.
func NewChainResolver(resolvers ...Resolver) Resolver {
	return chainResolver(resolvers)
}

func (c chainResolver) Resolve(ctx context.Context, name string) (io.ReadCloser, error) {
	for _, r := range c {
		rc, err := r.Resolve(ctx, name)
		if err == nil {
			if rc != nil {
				return rc, nil
			}
			continue
		}
		if !isMiss(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
