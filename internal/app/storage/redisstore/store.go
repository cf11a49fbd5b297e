// Package redisstore implements storage.Store on Redis so several client
// processes can share one signed-in identity.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/storefront/internal/app/storage"
)

// Store implements storage.Store backed by Redis.
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// Open parses a redis:// URL, connects and pings the server.
func Open(ctx context.Context, rawURL, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client. Keys are namespaced with prefix.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
