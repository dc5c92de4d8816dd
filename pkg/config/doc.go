// Package config loads typed configuration from environment variables.
//
// Configuration structs declare their variables with caarlos0/env tags:
//
//	type Config struct {
//		BaseURL          string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
//		RefreshTransport string        `env:"REFRESH_TRANSPORT" envDefault:"cookie"`
//		TokenMargin      time.Duration `env:"SESSION_TOKEN_MARGIN" envDefault:"30s"`
//	}
//
// Load parses a struct once per type and serves cached copies afterwards,
// which suits process-wide settings. Parse skips the cache and accepts a
// variable prefix for side-by-side profiles. LoadEnv pulls extra dotenv files
// into the environment; a ./.env file is picked up automatically on the first
// Load.
//
// Errors wrap ErrParsingConfig or ErrLoadingEnvFile and can be matched with
// errors.Is.
package config
