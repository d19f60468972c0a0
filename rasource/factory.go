package rasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/justapithecus/rasource/internal/mmap"
	"github.com/justapithecus/rasource/internal/streamutil"
)

// mapFailedText is the diagnostic text historically used to recognise a
// failed memory map when no typed signal is available.
const mapFailedText = "Map failed"

// -----------------------------------------------------------------------------
// Factory Configuration
// -----------------------------------------------------------------------------

// Config holds the settings of a Factory. It is copied at construction, so
// later changes to a Config value never affect an existing Factory.
type Config struct {
	// ForceRead reads local files fully into memory instead of mapping them
	// or keeping them open.
	ForceRead bool

	// PlainRandomAccess opens local files for seek-then-read access and never
	// attempts a memory map.
	PlainRandomAccess bool

	// Resolver looks up descriptors that are neither readable local files nor
	// URLs. Default: none (such descriptors fail with ErrNotFound).
	Resolver Resolver

	// HTTPClient fetches http and https URLs. Default: http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives strategy decisions and fallbacks. Default: discard.
	Logger *slog.Logger
}

// strategy is the backing chosen for a readable local file.
type strategy int

const (
	strategyMapped strategy = iota
	strategyFile
	strategyMemory
)

func (s strategy) String() string {
	switch s {
	case strategyMapped:
		return "mapped"
	case strategyFile:
		return "file"
	case strategyMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Factory
// -----------------------------------------------------------------------------

// Factory creates Sources from byte slices, streams, URLs and file names.
//
// A Factory is immutable and safe for concurrent use. WithForceRead and
// WithPlainRandomAccess return modified copies.
//
// Sources of KindArray and KindMapped may be read concurrently without
// locking; sources of KindFile may not. A caller that needs lock-free reads
// should leave PlainRandomAccess unset and check Source.Kind.
type Factory struct {
	cfg      Config
	client   *http.Client
	logger   *slog.Logger
	resolver Resolver

	// Strategy openers, replaced in tests.
	mapFile  func(path string) (Source, error)
	openFile func(path string) (Source, error)
}

// NewFactory creates a factory with documented defaults:
//   - memory mapping preferred for local files, with file-handle fallback
//   - no resource resolver
//   - http.DefaultClient for http and https URLs
//   - logging discarded
func NewFactory(cfg Config) *Factory {
	f := &Factory{
		cfg:      cfg,
		client:   cfg.HTTPClient,
		logger:   cfg.Logger,
		resolver: cfg.Resolver,
		mapFile:  openMapped,
		openFile: openFile,
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	return f
}

// Config returns the configuration the factory was built with.
func (f *Factory) Config() Config {
	return f.cfg
}

// WithForceRead returns a copy of the factory with ForceRead set to v.
func (f *Factory) WithForceRead(v bool) *Factory {
	c := *f
	c.cfg.ForceRead = v
	return &c
}

// WithPlainRandomAccess returns a copy of the factory with
// PlainRandomAccess set to v.
func (f *Factory) WithPlainRandomAccess(v bool) *Factory {
	c := *f
	c.cfg.PlainRandomAccess = v
	return &c
}

// FromBytes returns an array source over data. data is shared, not copied.
func (f *Factory) FromBytes(data []byte) Source {
	return NewArraySource(data)
}

// FromStream reads r to the end and returns an array source over its
// content. If r is an io.Closer it is closed before FromStream returns,
// whether or not reading succeeded.
func (f *Factory) FromStream(r io.Reader) (Source, error) {
	return f.materialize("", r)
}

// FromURL fetches the content at u into memory and returns an array source.
// Supported schemes are http, https, file, jar, wsjar and vfszip.
func (f *Factory) FromURL(ctx context.Context, u *url.URL) (Source, error) {
	rc, err := f.openURL(ctx, u)
	if err != nil {
		return nil, err
	}
	return f.materialize(u.String(), rc)
}

// FromPathOrURL returns the best source for descriptor:
//
//  1. If descriptor is not a readable local file, it is opened as a URL when
//     it starts with file:/, http://, https://, jar:, wsjar: or vfszip:, and
//     otherwise looked up through the configured Resolver. Either way the
//     content is read into memory.
//  2. With ForceRead, the file is read into memory.
//  3. With PlainRandomAccess, the file is opened for seek-then-read access.
//  4. Otherwise the file is memory mapped. If the map cannot be established,
//     the file is opened for seek-then-read access instead; other failures
//     are returned unchanged.
//
// Returns an error wrapping ErrNotFound if nothing matches.
func (f *Factory) FromPathOrURL(ctx context.Context, descriptor string) (Source, error) {
	if !canRead(descriptor) {
		if hasRemotePrefix(descriptor) {
			u, err := url.Parse(descriptor)
			if err != nil {
				return nil, &Error{Op: "parse", Name: descriptor, Err: err}
			}
			f.logger.Debug("opening url", "descriptor", descriptor, "scheme", u.Scheme)
			return f.FromURL(ctx, u)
		}
		f.logger.Debug("resolving resource", "descriptor", descriptor)
		return f.fromResource(ctx, descriptor)
	}

	s := f.strategy()
	f.logger.Debug("opening local file", "path", descriptor, "strategy", s.String())

	switch s {
	case strategyMemory:
		return f.readFile(descriptor)
	case strategyFile:
		return f.openFile(descriptor)
	case strategyMapped:
		src, err := f.mapFile(descriptor)
		if err == nil {
			return src, nil
		}
		if !isMapFailure(err) {
			return nil, err
		}
		f.logger.Warn("memory map failed, falling back to file reads", "path", descriptor, "error", err)
		return f.openFile(descriptor)
	default:
		return nil, fmt.Errorf("rasource: unknown strategy %d", s)
	}
}

// strategy picks the backing for a readable local file.
func (f *Factory) strategy() strategy {
	switch {
	case f.cfg.ForceRead:
		return strategyMemory
	case f.cfg.PlainRandomAccess:
		return strategyFile
	default:
		return strategyMapped
	}
}

// readFile reads a whole local file into an array source.
func (f *Factory) readFile(path string) (Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Name: path, Err: err}
	}
	return f.materialize(path, file)
}

// fromResource resolves name through the configured Resolver.
func (f *Factory) fromResource(ctx context.Context, name string) (Source, error) {
	if f.resolver == nil {
		return nil, &Error{Op: "resolve", Name: name, Err: ErrNotFound}
	}

	rc, err := f.resolver.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, ErrInvalidName) {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, &Error{Op: "resolve", Name: name, Err: err}
	}
	if rc == nil {
		return nil, &Error{Op: "resolve", Name: name, Err: ErrNotFound}
	}
	return f.materialize(name, rc)
}

// materialize reads r fully into an array source and closes r if it is an
// io.Closer.
func (f *Factory) materialize(name string, r io.Reader) (Source, error) {
	if c, ok := r.(io.Closer); ok {
		defer closer(c)()
	}

	data, err := streamutil.ReadAll(r)
	if err != nil {
		return nil, &Error{Op: "read", Name: name, Err: err}
	}
	return NewArraySource(data), nil
}

// isMapFailure reports whether err means a memory map could not be
// established. The typed mmap.OpMap signal is authoritative. The text match
// is a last resort for openers that report failures only as text, and is a
// known compatibility risk: it recognises exactly one message and nothing
// platform specific.
func isMapFailure(err error) bool {
	if mmap.IsMapFailure(err) {
		return true
	}
	return strings.Contains(err.Error(), mapFailedText)
}
