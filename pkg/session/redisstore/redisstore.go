// Package redisstore persists the development refresh secret in Redis.
package redisstore

import (
	"context"
	"time"

	"github.com/dmitrymomot/coachkit/pkg/redis"
	"github.com/dmitrymomot/coachkit/pkg/session"
)

const keyPrefix = "refresh_secret:"

// Store implements session.SecretStore on top of redis.Storage.
type Store struct {
	storage *redis.Storage
	key     string
	ttl     time.Duration
}

var _ session.SecretStore = (*Store)(nil)

// New stores the secret of profile under the storage's prefix. A positive ttl
// expires the secret on the Redis side.
func New(storage *redis.Storage, profile string, ttl time.Duration) *Store {
	return &Store{storage: storage, key: keyPrefix + profile, ttl: ttl}
}

// Connect dials Redis using cfg and returns a Store for profile.
func Connect(ctx context.Context, cfg redis.Config, profile string, ttl time.Duration) (*Store, error) {
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(redis.NewStorage(client, cfg.KeyPrefix), profile, ttl), nil
}

func (s *Store) Load(ctx context.Context) (string, error) {
	val, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (s *Store) Save(ctx context.Context, secret string) error {
	return s.storage.Set(ctx, s.key, []byte(secret), s.ttl)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, s.key)
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.storage.Close()
}
