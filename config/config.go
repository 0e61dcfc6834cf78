package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
	"github.com/timgluz/openeew/keyspace"
	"github.com/timgluz/openeew/record"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCountry        = "mx"
	DefaultMaxConcurrency = 16
	DefaultRequestTimeout = "PT30S"
	DefaultLogLevel       = "info"
)

var (
	ErrEmptyConfig   = fmt.Errorf("config is empty")
	ErrInvalidConfig = fmt.Errorf("invalid config")
)

type Config struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"` // optional S3-compatible endpoint, e.g. a local mirror
	Country        string `yaml:"country"`
	MaxConcurrency int    `yaml:"max_concurrency"`
	DecodePolicy   string `yaml:"decode_policy"`   // lenient or strict
	RequestTimeout string `yaml:"request_timeout"` // ISO 8601 duration
	LogLevel       string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Bucket:         keyspace.DefaultBucket,
		Region:         keyspace.DefaultRegion,
		Country:        DefaultCountry,
		MaxConcurrency: DefaultMaxConcurrency,
		DecodePolicy:   record.Lenient.String(),
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads YAML from r on top of the default values.
func Load(r io.Reader) (Config, error) {
	cfg := Default()

	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, ErrEmptyConfig
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, cfg.Validate()
}

func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Default(), err
	}
	defer f.Close()

	return Load(f)
}

// LoadFromEnv overlays OPENEEW_* environment variables on base.
func LoadFromEnv(base Config) (Config, error) {
	cfg := base

	if v := os.Getenv("OPENEEW_BUCKET"); v != "" {
		cfg.Bucket = v
	}

	if v := os.Getenv("OPENEEW_REGION"); v != "" {
		cfg.Region = v
	}

	if v := os.Getenv("OPENEEW_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}

	if v := os.Getenv("OPENEEW_COUNTRY"); v != "" {
		cfg.Country = v
	}

	if v := os.Getenv("OPENEEW_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("%w: OPENEEW_MAX_CONCURRENCY: %w", ErrInvalidConfig, err)
		}
		cfg.MaxConcurrency = n
	}

	if v := os.Getenv("OPENEEW_DECODE_POLICY"); v != "" {
		cfg.DecodePolicy = v
	}

	if v := os.Getenv("OPENEEW_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = v
	}

	if v := os.Getenv("OPENEEW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error

	if c.Bucket == "" {
		errs = append(errs, fmt.Errorf("%w: bucket is not set", ErrInvalidConfig))
	}

	if c.Region == "" {
		errs = append(errs, fmt.Errorf("%w: region is not set", ErrInvalidConfig))
	}

	if _, err := keyspace.NormalizeCountryCode(c.Country); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("%w: max_concurrency must be at least 1, got %d", ErrInvalidConfig, c.MaxConcurrency))
	}

	if _, err := c.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	if _, err := c.RequestTimeoutDuration(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	return errors.Join(errs...)
}

func (c Config) Policy() (record.Policy, error) {
	return record.ParsePolicy(c.DecodePolicy)
}

// RequestTimeoutDuration returns the per-request timeout, zero when unset.
func (c Config) RequestTimeoutDuration() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}

	d, err := duration.Parse(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to parse request_timeout %q: %w", c.RequestTimeout, err)
	}

	timeout := d.ToTimeDuration()
	if timeout < 0 {
		return 0, fmt.Errorf("request_timeout %q is negative", c.RequestTimeout)
	}

	return timeout, nil
}
