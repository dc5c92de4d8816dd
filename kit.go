package coachkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"

	"golang.org/x/net/publicsuffix"

	"github.com/dmitrymomot/coachkit/pkg/account"
	"github.com/dmitrymomot/coachkit/pkg/apiclient"
	"github.com/dmitrymomot/coachkit/pkg/async"
	"github.com/dmitrymomot/coachkit/pkg/logger"
	"github.com/dmitrymomot/coachkit/pkg/session"
	"github.com/dmitrymomot/coachkit/pkg/session/boltstore"
	"github.com/dmitrymomot/coachkit/pkg/session/redisstore"
)

// Kit bundles the session manager, the API client and the account
// endpoints of one signed-in client.
type Kit struct {
	Config  Config
	HTTP    *http.Client
	Session *session.Manager
	API     *apiclient.Client
	Account *account.Service

	logger      *slog.Logger
	secrets     session.SecretStore
	ownsSecrets bool
}

type options struct {
	logger      *slog.Logger
	httpClient  *http.Client
	baseURL     string
	secrets     session.SecretStore
	sessionOpts []session.Option
	apiOpts     []apiclient.Option
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHTTPClient replaces the cookie-jar client built by New.
// The client should carry a cookie jar when the cookie refresh transport is used.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithBaseURL overrides the configured API origin.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithSecretStore sets the refresh secret store, bypassing the dev
// persistence settings.
func WithSecretStore(s session.SecretStore) Option {
	return func(o *options) {
		o.secrets = s
	}
}

// WithSessionOptions appends options passed to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// WithAPIOptions appends options passed to the API client.
func WithAPIOptions(opts ...apiclient.Option) Option {
	return func(o *options) {
		o.apiOpts = append(o.apiOpts, opts...)
	}
}

// New wires a Kit from cfg. The session is not restored until Start is called.
func New(ctx context.Context, cfg Config, opts ...Option) (*Kit, error) {
	o := &options{logger: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	base := cfg.BaseURL()
	if o.baseURL != "" {
		base = o.baseURL
	}
	if base == "" && o.httpClient == nil {
		return nil, ErrMissingBaseURL
	}

	k := &Kit{
		Config: cfg,
		HTTP:   o.httpClient,
		logger: o.logger.With(logger.Component("coachkit")),
	}

	if k.HTTP == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("coachkit: cookie jar: %w", err)
		}
		k.HTTP = &http.Client{Jar: jar, Timeout: cfg.HTTPTimeout}
	}

	sessCfg := cfg.Session
	sessCfg.BaseURL = base

	k.secrets = o.secrets
	if k.secrets == nil {
		store, err := k.openSecretStore(ctx, base)
		if err != nil {
			return nil, err
		}
		k.secrets = store
		k.ownsSecrets = store != nil
	}
	if k.secrets != nil && sessCfg.RefreshTransport == session.TransportCookie {
		// The cookie jar lives in memory; only the header transport can
		// replay a persisted secret.
		k.logger.InfoContext(ctx, "secret persistence enabled, switching refresh transport to header")
		sessCfg.RefreshTransport = session.TransportHeader
	}

	sessOpts := []session.Option{
		session.WithHTTPClient(k.HTTP),
		session.WithLogger(o.logger),
		session.WithObserver(k.observe),
	}
	if k.secrets != nil {
		sessOpts = append(sessOpts, session.WithSecretStore(k.secrets))
	}
	k.Session = session.NewFromConfig(sessCfg, append(sessOpts, o.sessionOpts...)...)

	apiOpts := []apiclient.Option{
		apiclient.WithHTTPClient(k.HTTP),
		apiclient.WithLogger(o.logger),
		apiclient.WithCacheCapacity(cfg.CacheCapacity),
		apiclient.WithOnAuthRequired(func(ctx context.Context, err *apiclient.APIError) {
			k.Session.NotifyAuthRequired(ctx, err.Message)
		}),
	}
	k.API = apiclient.New(base, k.Session, append(apiOpts, o.apiOpts...)...)
	k.Account = account.New(k.API)

	return k, nil
}

// Start restores the session from the refresh secret. See session.Manager.Start.
func (k *Kit) Start(ctx context.Context) *async.Future[bool] {
	return k.Session.Start(ctx)
}

// Persistent reports whether the refresh secret outlives the process.
func (k *Kit) Persistent() bool {
	return k.secrets != nil
}

// Close stops background renewal and releases the secret store opened by New.
func (k *Kit) Close() error {
	err := k.Session.Close()
	if c, ok := k.secrets.(io.Closer); ok && k.ownsSecrets {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (k *Kit) observe(ev session.Event) {
	if ev.Type == session.EventLoggedOut && k.API != nil {
		k.API.PurgeCache()
	}
}

func (k *Kit) openSecretStore(ctx context.Context, profile string) (session.SecretStore, error) {
	cfg := k.Config
	if !cfg.DevPersistRefresh {
		return nil, nil
	}
	if !cfg.Environment.AllowsDevFeatures() {
		k.logger.WarnContext(ctx, "refresh secret persistence is development only, ignoring",
			slog.String("environment", cfg.Environment.String()))
		return nil, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if profile == "" {
		profile = "default"
	}

	switch cfg.DevSecretStore {
	case SecretStoreRedis:
		store, err := redisstore.Connect(ctx, cfg.Redis, profile, cfg.DevSecretTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpenSecretStore, err)
		}
		return store, nil
	default:
		if dir := filepath.Dir(cfg.DevSecretPath); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrOpenSecretStore, err)
			}
		}
		store, err := boltstore.Open(cfg.DevSecretPath, profile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpenSecretStore, err)
		}
		return store, nil
	}
}
