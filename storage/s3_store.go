package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string // optional S3-compatible endpoint, addressed path-style

	RequestTimeout time.Duration
}

// S3Store reads objects from an S3 bucket. It is safe for concurrent use,
// Close included; calls made after Close fail with ErrStoreNotReady.
type S3Store struct {
	client atomic.Pointer[s3.Client]
	bucket string
	logger *slog.Logger
}

func NewS3Store(client *s3.Client, bucket string, logger *slog.Logger) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("S3 client not set")
	}

	if bucket == "" {
		return nil, fmt.Errorf("bucket name not set")
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &S3Store{
		bucket: bucket,
		logger: logger,
	}
	s.client.Store(client)

	return s, nil
}

// NewAnonymousS3Store builds a store with unsigned requests, as needed for
// public datasets.
func NewAnonymousS3Store(ctx context.Context, opts S3Options, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if opts.RequestTimeout > 0 {
		awsCfg.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3Store(client, opts.Bucket, logger)
}

func (s *S3Store) IsReady() bool {
	_, err := s.readyClient()
	return err == nil
}

// readyClient loads the client once so a call keeps using it even when Close
// runs concurrently.
func (s *S3Store) readyClient() (*s3.Client, error) {
	if s.logger == nil {
		fmt.Println("Logger of S3Store is not initialized")
		return nil, ErrStoreNotReady
	}

	client := s.client.Load()
	if client == nil {
		s.logger.Error("S3 client is not set for S3Store")
		return nil, ErrStoreNotReady
	}

	return client, nil
}

func (s *S3Store) Bucket() string {
	return s.bucket
}

func (s *S3Store) ListCommonPrefixes(ctx context.Context, prefix, delimiter string) ([]string, error) {
	client, err := s.readyClient()
	if err != nil {
		return nil, err
	}

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	})

	var prefixes []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to list common prefixes", "bucket", s.bucket, "prefix", prefix, "error", err)
			return nil, err
		}

		for _, p := range page.CommonPrefixes {
			prefixes = append(prefixes, aws.ToString(p.Prefix))
		}
	}

	slices.Sort(prefixes)
	s.logger.Debug("Listed common prefixes", "bucket", s.bucket, "prefix", prefix, "count", len(prefixes))
	return slices.Compact(prefixes), nil
}

func (s *S3Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	client, err := s.readyClient()
	if err != nil {
		return nil, err
	}

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("Failed to list objects", "bucket", s.bucket, "prefix", prefix, "error", err)
			return nil, err
		}

		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	slices.Sort(keys)
	s.logger.Debug("Listed objects", "bucket", s.bucket, "prefix", prefix, "count", len(keys))
	return keys, nil
}

func (s *S3Store) GetObject(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	client, err := s.readyClient()
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}

		s.logger.Error("Failed to get object", "bucket", s.bucket, "key", key, "error", err)
		return nil, err
	}
	defer func() {
		if err := out.Body.Close(); err != nil {
			s.logger.Error("Failed to close object body", "key", key, "error", err)
		}
	}()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	s.logger.Debug("Object retrieved", "bucket", s.bucket, "key", key, "length", len(content))
	return content, nil
}

func (s *S3Store) Close() error {
	if s.client.Swap(nil) == nil {
		s.logger.Warn("S3Store already closed", "bucket", s.bucket)
	}

	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}

	return false
}
