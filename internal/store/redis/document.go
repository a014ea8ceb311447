package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store persists the single document blob under one Redis key.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a document store bound to key. An empty key falls back
// to DefaultDocumentKey.
func NewStore(client *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultDocumentKey
	}
	return &Store{
		client: client,
		key:    key,
	}
}

// Key returns the storage key in use.
func (s *Store) Key() string {
	return s.key
}

// Get reads the stored document bytes. The second return value is false
// when the key does not exist; that is not an error.
func (s *Store) Get(ctx context.Context) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read document: %w", err)
	}
	return data, true, nil
}

// Set writes the document bytes. The document never expires.
func (s *Store) Set(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Delete removes the stored document.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// BytesInUse reports how many bytes the document key occupies. A missing
// key counts as zero.
func (s *Store) BytesInUse(ctx context.Context) (int64, error) {
	n, err := s.client.MemoryUsage(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query document size: %w", err)
	}
	return n, nil
}
