package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/coachkit/pkg/broadcast"
	"github.com/dmitrymomot/coachkit/pkg/logger"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithHTTPClient sets the client used for auth calls. Share it with the API
// client so both see the same cookie jar.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithConfig sets custom configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l.With(logger.Component("session"))
		}
	}
}

// WithRefreshTransport selects cookie or header refresh transport.
func WithRefreshTransport(t RefreshTransport) Option {
	return func(m *Manager) {
		m.config.RefreshTransport = t
	}
}

// WithSecretStore enables persistence of the refresh secret.
func WithSecretStore(store SecretStore) Option {
	return func(m *Manager) {
		m.secrets = store
	}
}

// WithObserver registers a callback invoked synchronously for every event.
func WithObserver(fn func(Event)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
	}
}

// WithBroadcaster replaces the default in-memory event broadcaster. The
// manager does not close a broadcaster it did not create.
func WithBroadcaster(b broadcast.Broadcaster[Event]) Option {
	return func(m *Manager) {
		m.events = b
		m.ownsEvents = false
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
