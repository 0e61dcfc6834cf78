package storage

import (
	"context"
	"fmt"
)

var (
	ErrObjectNotFound = fmt.Errorf("object not found")
	ErrStoreNotReady  = fmt.Errorf("object store is not ready")
	ErrEmptyKey       = fmt.Errorf("key cannot be empty")
)

// ObjectStore is a read-only view of a bucket. Implementations must be safe
// for concurrent use.
type ObjectStore interface {
	// ListCommonPrefixes returns the distinct prefixes found under prefix up
	// to and including the next delimiter, sorted.
	ListCommonPrefixes(ctx context.Context, prefix, delimiter string) ([]string, error)
	// ListKeys returns all object keys under prefix, sorted.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	// GetObject returns the content of the object, or ErrObjectNotFound.
	GetObject(ctx context.Context, key string) ([]byte, error)

	IsReady() bool
	Close() error
}
