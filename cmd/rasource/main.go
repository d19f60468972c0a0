// rasource opens a file, URL or resource the way the rasource library
// does and reports on it.
//
// Usage:
//
//	rasource [flags] stat <descriptor>
//	rasource [flags] cat <descriptor>
//
// stat prints the chosen source kind, its length and a BLAKE3 digest of the
// content as JSON. cat writes the content, or the range selected by
// --offset and --count, to stdout.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/justapithecus/rasource/internal/config"
	"github.com/justapithecus/rasource/rasource"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// usageError marks errors caused by the command line rather than the source.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }
func (e usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// options are the command-line flags.
type options struct {
	configPath string
	forceRead  bool
	plain      bool
	offset     int64
	count      int64
	logLevel   string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("rasource", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.configPath, "config", "", "path to YAML config file (default: $"+config.EnvVar+")")
	flagSet.BoolVar(&opts.forceRead, "force-read", false, "read local files fully into memory")
	flagSet.BoolVar(&opts.plain, "plain", false, "use seek-then-read file access instead of memory mapping")
	flagSet.Int64Var(&opts.offset, "offset", 0, "cat: first byte to write")
	flagSet.Int64Var(&opts.count, "count", -1, "cat: number of bytes to write (default: to the end)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usageError{err: err}
	}

	rest := flagSet.Args()
	if len(rest) != 2 {
		printHelp(stderr, flagSet)
		return usagef("expected a command and a descriptor, got %d arguments", len(rest))
	}
	command, descriptor := rest[0], rest[1]
	if command != "stat" && command != "cat" {
		return usagef("unknown command %q", command)
	}

	cfg, err := loadConfig(opts, flagSet)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	resolver, err := buildResolver(ctx, cfg.Resources)
	if err != nil {
		return err
	}

	factory := rasource.NewFactory(rasource.Config{
		ForceRead:         cfg.ForceRead,
		PlainRandomAccess: cfg.PlainRandomAccess,
		Resolver:          resolver,
		HTTPClient:        &http.Client{Timeout: cfg.Timeout()},
		Logger:            logger,
	})

	src, err := factory.FromPathOrURL(ctx, descriptor)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("close failed", "descriptor", descriptor, "error", err)
		}
	}()

	logger.Info("opened source", "descriptor", descriptor, "kind", src.Kind().String(), "length", src.Length())

	if command == "stat" {
		return stat(stdout, descriptor, src)
	}
	return cat(stdout, src, opts.offset, opts.count)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts options, flagSet *pflag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flagSet.Changed("force-read") {
		cfg.ForceRead = opts.forceRead
	}
	if flagSet.Changed("plain") {
		cfg.PlainRandomAccess = opts.plain
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageError{err: fmt.Errorf("invalid config: %w", err)}
	}
	return cfg, nil
}

// statResult is the JSON document printed by stat.
type statResult struct {
	Descriptor      string `json:"descriptor"`
	Kind            string `json:"kind"`
	Length          int64  `json:"length"`
	ConcurrentReads bool   `json:"concurrent_reads"`
	BLAKE3          string `json:"blake3"`
}

func stat(w io.Writer, descriptor string, src rasource.Source) error {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, rasource.NewReader(src)); err != nil {
		return fmt.Errorf("hashing %s: %w", descriptor, err)
	}

	data, err := json.MarshalIndent(statResult{
		Descriptor:      descriptor,
		Kind:            src.Kind().String(),
		Length:          src.Length(),
		ConcurrentReads: src.Kind().ConcurrentReads(),
		BLAKE3:          hex.EncodeToString(hasher.Sum(nil)),
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func cat(w io.Writer, src rasource.Source, offset, count int64) error {
	if offset < 0 || offset > src.Length() {
		return usagef("offset %d outside source of length %d", offset, src.Length())
	}
	n := src.Length() - offset
	if count >= 0 && count < n {
		n = count
	}
	_, err := io.Copy(w, io.NewSectionReader(src, offset, n))
	return err
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `rasource opens a local file, URL or bundled resource as a random-access source.

Usage:
  rasource [flags] stat <descriptor>
  rasource [flags] cat <descriptor>

A descriptor is a local path, a file:, http(s):, jar:, wsjar: or vfszip:
URL, or a resource name looked up in the configured resource locations.

Flags:
%s`, flagSet.FlagUsages())
}
