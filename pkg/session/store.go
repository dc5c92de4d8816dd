package session

import "context"

// SecretStore persists the refresh secret between process runs. It is meant
// for development only; production clients keep the secret in the cookie jar.
type SecretStore interface {
	// Load returns the stored secret or "" when nothing is stored.
	Load(ctx context.Context) (string, error)

	// Save replaces the stored secret.
	Save(ctx context.Context, secret string) error

	// Clear removes the stored secret.
	Clear(ctx context.Context) error
}
