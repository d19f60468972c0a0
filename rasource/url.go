package rasource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/justapithecus/rasource/internal/streamutil"
)

// remotePrefixes are the descriptor prefixes treated as URLs when the
// descriptor does not name a readable local file. The list is exact; other
// schemes go to the Resolver.
var remotePrefixes = []string{
	"file:/",
	"http://",
	"https://",
	"jar:",
	"wsjar:",
	"vfszip:",
}

// hasRemotePrefix reports whether descriptor starts with a recognised
// URL prefix. Matching is case-sensitive.
func hasRemotePrefix(descriptor string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(descriptor, p) {
			return true
		}
	}
	return false
}

// openURL opens u as a stream. The caller closes it.
func (f *Factory) openURL(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	switch u.Scheme {
	case "http", "https":
		return f.fetch(ctx, u)
	case "file":
		return openFileURL(u)
	case "jar", "wsjar":
		return f.openJarEntry(ctx, u)
	case "vfszip":
		return openVFSZipEntry(u)
	default:
		return nil, &Error{Op: "open", Name: u.String(), Err: ErrUnsupportedScheme}
	}
}

// fetch performs a GET and returns the response body.
func (f *Factory) fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Op: "fetch", Name: u.String(), Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "fetch", Name: u.String(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		statusErr := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			statusErr = fmt.Errorf("%w: %s", ErrNotFound, resp.Status)
		}
		return nil, &Error{Op: "fetch", Name: u.String(), Err: statusErr}
	}

	if resp.ContentLength > 0 {
		return &streamutil.Sized{ReadCloser: resp.Body, N: resp.ContentLength}, nil
	}
	return resp.Body, nil
}

// fileURLPath returns the local path named by a file: URL.
func fileURLPath(u *url.URL) (string, error) {
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: file host %q", ErrUnsupportedScheme, u.Host)
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	// file:/C:/dir/name on Windows
	if runtime.GOOS == "windows" && len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

func openFileURL(u *url.URL) (io.ReadCloser, error) {
	p, err := fileURLPath(u)
	if err != nil {
		return nil, &Error{Op: "open", Name: u.String(), Err: err}
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, &Error{Op: "open", Name: u.String(), Err: notFoundOr(err)}
	}
	return file, nil
}

// notFoundOr tags missing-file errors with ErrNotFound, keeping the cause.
func notFoundOr(err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// -----------------------------------------------------------------------------
// Archive entries
// -----------------------------------------------------------------------------

// openJarEntry opens jar:<archive-url>!/<entry>.
func (f *Factory) openJarEntry(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	opaque := u.Opaque
	sep := strings.Index(opaque, "!/")
	if sep < 0 {
		return nil, &Error{Op: "parse", Name: u.String(), Err: errors.New("missing !/ entry separator")}
	}

	archiveURL, err := url.Parse(opaque[:sep])
	if err != nil {
		return nil, &Error{Op: "parse", Name: u.String(), Err: err}
	}
	entry, err := url.PathUnescape(opaque[sep+2:])
	if err != nil {
		return nil, &Error{Op: "parse", Name: u.String(), Err: err}
	}

	zr, release, err := f.openArchive(ctx, archiveURL)
	if err != nil {
		return nil, err
	}
	return openZipEntry(zr, entry, release, u.String())
}

// openArchive opens the zip archive at u. File archives are read in place;
// anything else is fetched into memory first.
func (f *Factory) openArchive(ctx context.Context, u *url.URL) (*zip.Reader, io.Closer, error) {
	if u.Scheme == "file" {
		p, err := fileURLPath(u)
		if err != nil {
			return nil, nil, &Error{Op: "open", Name: u.String(), Err: err}
		}
		return openZipFile(p, u.String())
	}

	rc, err := f.openURL(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	defer closer(rc)()

	data, err := streamutil.ReadAll(rc)
	if err != nil {
		return nil, nil, &Error{Op: "read", Name: u.String(), Err: err}
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, &Error{Op: "unzip", Name: u.String(), Err: err}
	}
	return zr, closerFunc(func() error { return nil }), nil
}

// openZipFile opens a zip archive on disk. The returned closer releases
// the archive file.
func openZipFile(path, name string) (*zip.Reader, io.Closer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &Error{Op: "open", Name: name, Err: notFoundOr(err)}
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, &Error{Op: "stat", Name: name, Err: err}
	}
	zr, err := zip.NewReader(file, info.Size())
	if err != nil {
		_ = file.Close()
		return nil, nil, &Error{Op: "unzip", Name: name, Err: err}
	}
	return zr, file, nil
}

// openZipEntry opens the named entry. release is closed together with the
// returned stream, or immediately on failure.
func openZipEntry(zr *zip.Reader, entry string, release io.Closer, name string) (io.ReadCloser, error) {
	for _, zf := range zr.File {
		if zf.Name != entry || strings.HasSuffix(zf.Name, "/") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			_ = release.Close()
			return nil, &Error{Op: "unzip", Name: name, Err: err}
		}
		size := int64(-1)
		if zf.UncompressedSize64 <= uint64(1<<62) {
			size = int64(zf.UncompressedSize64)
		}
		return &stackedReader{Reader: rc, size: size, closers: []io.Closer{rc, release}}, nil
	}

	_ = release.Close()
	return nil, &Error{Op: "unzip", Name: name, Err: fmt.Errorf("%w: no entry %q", ErrNotFound, entry)}
}

// openVFSZipEntry opens vfszip:<archive-path>/<entry>. The archive is the
// shortest leading path prefix that is a regular file. Nested archives are
// not descended.
func openVFSZipEntry(u *url.URL) (io.ReadCloser, error) {
	p := u.Path
	if p == "" {
		p = u.Opaque
	}

	for i := 1; i < len(p); i++ {
		if p[i] != '/' {
			continue
		}
		archive := filepath.FromSlash(p[:i])
		info, err := os.Stat(archive)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		zr, release, err := openZipFile(archive, u.String())
		if err != nil {
			return nil, err
		}
		return openZipEntry(zr, p[i+1:], release, u.String())
	}

	return nil, &Error{Op: "open", Name: u.String(), Err: fmt.Errorf("%w: no archive in path", ErrNotFound)}
}
