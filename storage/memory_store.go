package storage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps objects in memory. It serves tests and callers that work
// from an already downloaded snapshot of the dataset.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	closed  bool

	logger *slog.Logger
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MemoryStore{
		objects: make(map[string][]byte),
		logger:  logger,
	}
}

func (s *MemoryStore) Put(key string, content []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreNotReady
	}

	s.objects[key] = slices.Clone(content)
	return nil
}

func (s *MemoryStore) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return !s.closed && s.objects != nil
}

func (s *MemoryStore) ListCommonPrefixes(ctx context.Context, prefix, delimiter string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if delimiter == "" {
		return nil, fmt.Errorf("delimiter cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreNotReady
	}

	var prefixes []string
	for key := range s.objects {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}

		if idx := strings.Index(rest, delimiter); idx >= 0 {
			prefixes = append(prefixes, prefix+rest[:idx+len(delimiter)])
		}
	}

	slices.Sort(prefixes)
	return slices.Compact(prefixes), nil
}

func (s *MemoryStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreNotReady
	}

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	slices.Sort(keys)
	return keys, nil
}

func (s *MemoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreNotReady
	}

	content, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	s.logger.Debug("Object retrieved from memory", "key", key, "length", len(content))
	return slices.Clone(content), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("Memory store is already closed, nothing to close")
		return nil
	}

	s.closed = true
	s.objects = nil
	return nil
}
