// Package config loads the rasource command configuration.
//
// Configuration is read from a single YAML file named by:
//   - the RASOURCE_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// Without either, the defaults apply. Command-line flags override values
// from the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "RASOURCE_CONFIG"

// Config is the configuration of the rasource command.
type Config struct {
	// ForceRead reads local files fully into memory.
	// Default: false
	ForceRead bool `yaml:"force_read"`

	// PlainRandomAccess opens local files for seek-then-read access instead
	// of mapping them.
	// Default: false
	PlainRandomAccess bool `yaml:"plain_random_access"`

	// HTTPTimeout bounds a whole http or https fetch, as a Go duration.
	// Default: 30s
	HTTPTimeout string `yaml:"http_timeout"`

	// LogLevel is one of debug, info, warn, error.
	// Default: warn
	LogLevel string `yaml:"log_level"`

	// Resources configures where non-file, non-URL descriptors are looked up.
	Resources ResourcesConfig `yaml:"resources"`
}

// ResourcesConfig configures resource resolution.
type ResourcesConfig struct {
	// Dirs are searched in order. ${HOME} and ${VAR:-default} are expanded.
	Dirs []string `yaml:"dirs"`

	// Decompress also serves name.gz and name.zst when name is missing.
	Decompress bool `yaml:"decompress"`

	// S3 adds an object store after the directories. Nil disables it.
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config configures the S3 resource resolver.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	// PathStyle is required by LocalStack and MinIO in their default setup.
	PathStyle bool `yaml:"path_style"`

	// AccessKeyID and SecretAccessKey set static credentials. When empty,
	// the default AWS credential chain is used.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HTTPTimeout: "30s",
		LogLevel:    "warn",
	}
}

// Load loads configuration from the file named by RASOURCE_CONFIG.
// If the variable is not set, the defaults are returned.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, on top of the
// defaults. Only ${HOME}-style variables in resource paths are expanded.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	for i, dir := range c.Resources.Dirs {
		c.Resources.Dirs[i] = expandVars(dir, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if d, err := time.ParseDuration(c.HTTPTimeout); err != nil {
		errs = append(errs, fmt.Errorf("http_timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout))
	}

	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of: %v", logLevels))
	}

	for i, dir := range c.Resources.Dirs {
		if dir == "" {
			errs = append(errs, fmt.Errorf("resources.dirs[%d] is empty", i))
		}
	}

	if s := c.Resources.S3; s != nil {
		if s.Bucket == "" {
			errs = append(errs, errors.New("resources.s3.bucket is required"))
		}
		if s.Region == "" {
			errs = append(errs, errors.New("resources.s3.region is required"))
		}
		if (s.AccessKeyID == "") != (s.SecretAccessKey == "") {
			errs = append(errs, errors.New("resources.s3.access_key_id and secret_access_key must be set together"))
		}
	}

	return errors.Join(errs...)
}

// Timeout returns HTTPTimeout as a duration. Call Validate first.
func (c *Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.HTTPTimeout)
	return d
}

// Level returns LogLevel as a slog level. Call Validate first.
func (c *Config) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}
