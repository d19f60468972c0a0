package rasource

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// writeZip builds a zip archive holding entries at path.
func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func archiveFixture(t *testing.T) (string, []byte) {
	t.Helper()
	data := pattern(20000)
	path := filepath.Join(t.TempDir(), "app.jar")
	writeZip(t, path, map[string][]byte{
		"fonts/Courier.afm": data,
		"fonts/":            nil,
		"empty.txt":         {},
	})
	return path, data
}

func TestFactory_JarFileURL(t *testing.T) {
	path, data := archiveFixture(t)
	f := NewFactory(Config{})

	for _, scheme := range []string{"jar", "wsjar"} {
		t.Run(scheme, func(t *testing.T) {
			src, err := f.FromPathOrURL(t.Context(), scheme+":file:"+filepath.ToSlash(path)+"!/fonts/Courier.afm")
			if err != nil {
				t.Fatal(err)
			}
			defer src.Close()
			if src.Kind() != KindArray {
				t.Errorf("Kind = %v, want array", src.Kind())
			}
			mustContent(t, src, data)
		})
	}

	src, err := f.FromPathOrURL(t.Context(), "jar:file:"+filepath.ToSlash(path)+"!/empty.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if src.Length() != 0 {
		t.Errorf("Length = %d, want 0", src.Length())
	}
}

func TestFactory_JarFileURL_Misses(t *testing.T) {
	path, _ := archiveFixture(t)
	archive := "jar:file:" + filepath.ToSlash(path)
	f := NewFactory(Config{})

	for _, desc := range []string{
		archive + "!/fonts/missing.afm",
		archive + "!/fonts/",
		"jar:file:" + filepath.ToSlash(path) + ".missing!/fonts/Courier.afm",
	} {
		_, err := f.FromPathOrURL(t.Context(), desc)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", desc, err)
		}
	}

	_, err := f.FromPathOrURL(t.Context(), archive)
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Op != "parse" {
		t.Errorf("expected parse error without entry separator, got %v", err)
	}
}

func TestFactory_JarHTTPURL(t *testing.T) {
	path, data := archiveFixture(t)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lib/app.jar" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	f := NewFactory(Config{HTTPClient: srv.Client()})
	src, err := f.FromPathOrURL(t.Context(), "jar:"+srv.URL+"/lib/app.jar!/fonts/Courier.afm")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	mustContent(t, src, data)

	_, err = f.FromPathOrURL(t.Context(), "jar:"+srv.URL+"/lib/other.jar!/fonts/Courier.afm")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFactory_JarCorruptArchive(t *testing.T) {
	path := writeTemp(t, []byte("this is not a zip archive"))
	_, err := NewFactory(Config{}).FromPathOrURL(t.Context(), "jar:file:"+filepath.ToSlash(path)+"!/a")
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Op != "unzip" {
		t.Errorf("expected unzip error, got %v", err)
	}
}

func TestFactory_VFSZipURL(t *testing.T) {
	dir := t.TempDir()
	ear := filepath.Join(dir, "deploy", "app.ear")
	data := pattern(999)
	writeZip(t, ear, map[string][]byte{"META-INF/fonts/Symbol.afm": data})

	f := NewFactory(Config{})
	src, err := f.FromPathOrURL(t.Context(), "vfszip:"+filepath.ToSlash(ear)+"/META-INF/fonts/Symbol.afm")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	mustContent(t, src, data)

	_, err = f.FromPathOrURL(t.Context(), "vfszip:"+filepath.ToSlash(ear)+"/META-INF/missing.afm")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing entry, got %v", err)
	}

	_, err = f.FromPathOrURL(t.Context(), "vfszip:"+filepath.ToSlash(dir)+"/nothing/here.afm")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound without archive, got %v", err)
	}
}
