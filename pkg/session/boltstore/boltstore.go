// Package boltstore persists the development refresh secret in a BBolt file.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/dmitrymomot/coachkit/pkg/session"
)

var bucketName = []byte("refresh_secrets")

type record struct {
	Secret  string    `json:"secret"`
	SavedAt time.Time `json:"saved_at"`
}

// Store implements session.SecretStore backed by a BBolt database. Secrets
// are keyed by profile, usually the API base URL, so one file can serve
// several backends.
type Store struct {
	db      *bbolt.DB
	profile []byte
}

var _ session.SecretStore = (*Store)(nil)

// New returns a Store using an already open database.
func New(db *bbolt.DB, profile string) *Store {
	return &Store{db: db, profile: []byte(profile)}
}

// Open opens or creates the database file at path.
func Open(path, profile string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return New(db, profile), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var rec record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		data := b.Get(s.profile)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return "", fmt.Errorf("loading refresh secret: %w", err)
	}
	return rec.Secret, nil
}

func (s *Store) Save(ctx context.Context, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if secret == "" {
		return s.Clear(ctx)
	}
	data, err := json.Marshal(record{Secret: secret, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put(s.profile, data)
	})
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.Delete(s.profile)
	})
}
