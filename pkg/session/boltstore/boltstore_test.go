package boltstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/dmitrymomot/coachkit/pkg/session/boltstore"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "secrets.db")

	store, err := boltstore.Open(path, "https://api.example.com")
	require.NoError(t, err)

	secret, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, secret)

	require.NoError(t, store.Save(ctx, "rt-1"))
	require.NoError(t, store.Close())

	reopened, err := boltstore.Open(path, "https://api.example.com")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	secret, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rt-1", secret)

	require.NoError(t, reopened.Clear(ctx))
	secret, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, secret)
}

func TestStore_ProfilesAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "secrets.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	staging := boltstore.New(db, "staging")
	prod := boltstore.New(db, "prod")

	require.NoError(t, staging.Save(ctx, "staging-secret"))

	secret, err := prod.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, secret)

	secret, err = staging.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "staging-secret", secret)
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()

	store, err := boltstore.Open(filepath.Join(t.TempDir(), "secrets.db"), "p")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Save(ctx, "x"), context.Canceled)
}
