package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"DEV_REDIS_URL" envDefault:"redis://localhost:6379/0"` // redis://:password@localhost:6379/0
	KeyPrefix      string        `env:"DEV_REDIS_KEY_PREFIX" envDefault:"coachkit:"`
	RetryAttempts  int           `env:"DEV_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"DEV_REDIS_RETRY_INTERVAL" envDefault:"1s"`
	ConnectTimeout time.Duration `env:"DEV_REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig mirrors the envDefault tags for callers that skip env parsing.
func DefaultConfig() Config {
	return Config{
		ConnectionURL:  "redis://localhost:6379/0",
		KeyPrefix:      "coachkit:",
		RetryAttempts:  3,
		RetryInterval:  time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}
