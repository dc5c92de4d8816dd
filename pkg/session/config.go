package session

import "time"

// Config holds session configuration.
type Config struct {
	// BaseURL is prepended to every auth endpoint path. Empty means same origin.
	BaseURL string `env:"API_BASE_URL"`

	// AuthPath is the prefix of the login, register, logout and refresh endpoints.
	AuthPath string `env:"SESSION_AUTH_PATH" envDefault:"/api/auth"`

	// RefreshTransport selects how the refresh secret travels (cookie or header).
	RefreshTransport RefreshTransport `env:"REFRESH_TRANSPORT" envDefault:"cookie"`

	// TokenMargin is the minimum remaining validity for a held token to be
	// handed out without renewal.
	TokenMargin time.Duration `env:"SESSION_TOKEN_MARGIN" envDefault:"30s"`

	// ProactiveSkew is how long before expiry the background renewal fires.
	ProactiveSkew time.Duration `env:"SESSION_PROACTIVE_SKEW" envDefault:"10s"`

	// MinRefreshDelay is the lower bound of the background renewal delay.
	MinRefreshDelay time.Duration `env:"SESSION_MIN_REFRESH_DELAY" envDefault:"1s"`

	// DefaultTTL is the assumed lifetime of a token whose expiry is unknown.
	DefaultTTL time.Duration `env:"SESSION_DEFAULT_TTL" envDefault:"10m"`

	// EventBuffer is the per-subscriber buffer of the event broadcaster.
	EventBuffer int `env:"SESSION_EVENT_BUFFER" envDefault:"16"`
}

// DefaultConfig returns default session configuration.
func DefaultConfig() Config {
	return Config{
		AuthPath:         "/api/auth",
		RefreshTransport: TransportCookie,
		TokenMargin:      30 * time.Second,
		ProactiveSkew:    10 * time.Second,
		MinRefreshDelay:  time.Second,
		DefaultTTL:       10 * time.Minute,
		EventBuffer:      16,
	}
}

// refreshDelay returns when the background renewal should fire for a token
// that expires in expiresIn.
func (c Config) refreshDelay(expiresIn time.Duration) time.Duration {
	return max(c.MinRefreshDelay, expiresIn-c.ProactiveSkew)
}

func (c Config) endpoint(name string) string {
	return c.BaseURL + c.AuthPath + "/" + name
}

// NewFromConfig creates a new Manager from the provided Config.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	configOpts := []Option{
		WithConfig(cfg),
	}

	configOpts = append(configOpts, opts...)

	return New(cfg.BaseURL, configOpts...)
}
