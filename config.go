package coachkit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/coachkit/pkg/config"
	"github.com/dmitrymomot/coachkit/pkg/environment"
	"github.com/dmitrymomot/coachkit/pkg/redis"
	"github.com/dmitrymomot/coachkit/pkg/session"
)

// Secret store kinds accepted by DEV_SECRET_STORE.
const (
	SecretStoreBolt  = "bolt"
	SecretStoreRedis = "redis"
)

var (
	ErrMissingBaseURL     = errors.New("coachkit: API base URL is not set")
	ErrUnknownSecretStore = errors.New("coachkit: unknown secret store")
	ErrOpenSecretStore    = errors.New("coachkit: failed to open secret store")
)

// Config is the client configuration, read from the environment.
type Config struct {
	// MockAPI drops the base URL so requests go to whatever the HTTP client
	// is wired to, typically an in-process fake backend.
	MockAPI bool `env:"MOCK_API" envDefault:"false"`

	// Environment defaults to production so development-only features need
	// an explicit APP_ENV=development.
	Environment environment.Environment `env:"APP_ENV" envDefault:"production"`

	// HTTPTimeout bounds every request made by the built-in HTTP client.
	// Zero leaves deadlines to the caller's context.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"0s"`

	// CacheCapacity bounds the ETag cache. Zero keeps every entry.
	CacheCapacity int `env:"API_CACHE_CAPACITY" envDefault:"0"`

	// DevPersistRefresh keeps the refresh secret across process restarts.
	// Ignored outside development.
	DevPersistRefresh bool          `env:"DEV_PERSIST_REFRESH" envDefault:"false"`
	DevSecretStore    string        `env:"DEV_SECRET_STORE" envDefault:"bolt"`
	DevSecretPath     string        `env:"DEV_SECRET_PATH" envDefault:".coachkit/session.db"`
	DevSecretTTL      time.Duration `env:"DEV_SECRET_TTL" envDefault:"720h"`

	Session session.Config
	Redis   redis.Config
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		Environment:    environment.Production,
		DevSecretStore: SecretStoreBolt,
		DevSecretPath:  ".coachkit/session.db",
		DevSecretTTL:   720 * time.Hour,
		Session:        session.DefaultConfig(),
		Redis:          redis.DefaultConfig(),
	}
}

// LoadConfig reads Config from the environment and any .env file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadProfileConfig reads Config for a named profile, where every variable
// carries the upper-cased profile name as a prefix (STAGING_API_BASE_URL for
// "staging"). An empty profile is LoadConfig.
func LoadProfileConfig(profile string) (Config, error) {
	if profile == "" {
		return LoadConfig()
	}
	cfg := Config{}
	if err := config.Parse(&cfg, ProfilePrefix(profile)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ProfilePrefix returns the environment prefix for a profile name.
func ProfilePrefix(profile string) string {
	return strings.ToUpper(strings.ReplaceAll(profile, "-", "_")) + "_"
}

// BaseURL is the API origin requests are sent to. It is empty in mock mode.
func (c Config) BaseURL() string {
	if c.MockAPI {
		return ""
	}
	return c.Session.BaseURL
}

// PersistsSecrets reports whether the refresh secret store will be opened.
func (c Config) PersistsSecrets() bool {
	return c.DevPersistRefresh && c.Environment.AllowsDevFeatures()
}

func (c Config) validate() error {
	switch c.DevSecretStore {
	case SecretStoreBolt, SecretStoreRedis:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSecretStore, c.DevSecretStore)
	}
}
