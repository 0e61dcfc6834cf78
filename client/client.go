package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/timgluz/openeew/config"
	"github.com/timgluz/openeew/keyspace"
	"github.com/timgluz/openeew/record"
	"github.com/timgluz/openeew/storage"
)

const DefaultMaxConcurrency = 16

type settings struct {
	maxConcurrency int
	policy         record.Policy
}

type Option func(*settings)

// WithMaxConcurrency bounds the number of concurrent list and get requests of
// a single call. Values below 1 are ignored.
func WithMaxConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

func WithDecodePolicy(policy record.Policy) Option {
	return func(s *settings) {
		s.policy = policy
	}
}

// Client retrieves devices and records of one country. It holds no mutable
// state and is safe for concurrent use.
type Client struct {
	layout   *keyspace.RecordLayout
	store    storage.ObjectStore
	decoder  *record.Decoder
	settings settings

	logger *slog.Logger
}

func New(country string, store storage.ObjectStore, logger *slog.Logger, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("object store not set")
	}

	if logger == nil {
		logger = slog.Default()
	}

	layout, err := keyspace.NewRecordLayout(country)
	if err != nil {
		return nil, err
	}

	s := settings{
		maxConcurrency: DefaultMaxConcurrency,
		policy:         record.Lenient,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Client{
		layout:   layout,
		store:    store,
		decoder:  record.NewDecoder(s.policy, logger),
		settings: s,
		logger:   logger,
	}, nil
}

// NewFromConfig builds a client reading the configured bucket anonymously.
func NewFromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = config.NewLogger(cfg.LogLevel)
	}

	timeout, err := cfg.RequestTimeoutDuration()
	if err != nil {
		return nil, err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewAnonymousS3Store(ctx, storage.S3Options{
		Bucket:         cfg.Bucket,
		Region:         cfg.Region,
		Endpoint:       cfg.Endpoint,
		RequestTimeout: timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}

	return New(cfg.Country, store, logger,
		WithMaxConcurrency(cfg.MaxConcurrency),
		WithDecodePolicy(policy),
	)
}

// WithCountry returns a client for another country sharing the same store.
// The receiver is left unchanged.
func (c *Client) WithCountry(country string) (*Client, error) {
	layout, err := keyspace.NewRecordLayout(country)
	if err != nil {
		return nil, err
	}

	clone := *c
	clone.layout = layout
	return &clone, nil
}

func (c *Client) Country() string {
	return c.layout.Country()
}

func (c *Client) IsReady() bool {
	if c.logger == nil {
		fmt.Println("Logger of Client is not initialized")
		return false
	}

	if c.store == nil || !c.store.IsReady() {
		c.logger.Error("Object store is not ready for Client", "country", c.Country())
		return false
	}

	return true
}

// Close closes the underlying store, which is shared with clients derived
// through WithCountry.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}

	return c.store.Close()
}
