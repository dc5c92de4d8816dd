package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/coachkit/pkg/async"
	"github.com/dmitrymomot/coachkit/pkg/broadcast"
	"github.com/dmitrymomot/coachkit/pkg/logger"
	"github.com/dmitrymomot/coachkit/pkg/requestid"
)

// maxAuthBody bounds how much of an auth response is read.
const maxAuthBody = 1 << 20

type stopper interface {
	Stop() bool
}

// Manager owns the access credential of one client: it logs in and out,
// renews the token before it expires and hands out valid tokens.
// All methods are safe for concurrent use.
type Manager struct {
	client     *http.Client
	config     Config
	secrets    SecretStore
	logger     *slog.Logger
	events     broadcast.Broadcaster[Event]
	ownsEvents bool
	observers  []func(Event)
	now        func() time.Time
	afterFunc  func(time.Duration, func()) stopper

	mu     sync.Mutex
	cred   *Credential
	secret string
	epoch  uint64
	timer  stopper
	closed bool

	renewals  async.Flight[string]
	startOnce sync.Once
	started   *async.Future[bool]
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a session manager for the API at baseURL. An empty baseURL
// targets paths relative to the HTTP client's transport, which suits mock
// servers mounted at the same origin.
func New(baseURL string, opts ...Option) *Manager {
	m := &Manager{
		client:     http.DefaultClient,
		config:     DefaultConfig(),
		logger:     logger.Discard(),
		ownsEvents: true,
		now:        time.Now,
		afterFunc: func(d time.Duration, fn func()) stopper {
			return time.AfterFunc(d, fn)
		},
		ready: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.config.BaseURL = strings.TrimRight(baseURL, "/")
	if m.config.RefreshTransport == "" {
		m.config.RefreshTransport = TransportCookie
	}
	if m.events == nil {
		m.events = broadcast.NewMemoryBroadcaster[Event](m.config.EventBuffer)
		m.ownsEvents = true
	}

	return m
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of the register call.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name,omitempty"`
	Role        Role   `json:"role,omitempty"`
	AdminSecret string `json:"adminSecret,omitempty"`
}

// Login exchanges credentials for an access token. Any non-2xx answer yields
// ErrInvalidCredentials; network failures are wrapped in ErrTransport.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	status, raw, err := m.post(ctx, "login", loginRequest{Email: identifier, Password: secret}, nil)
	if err != nil {
		return err
	}
	if !successful(status) {
		m.logger.InfoContext(ctx, "login rejected", logger.Status(status))
		return ErrInvalidCredentials
	}

	resp, err := decodeAuthResponse(raw)
	if err != nil {
		return err
	}

	cred, _ := m.install(ctx, resp, 0, true)
	m.logger.InfoContext(ctx, "logged in",
		logger.UserID(cred.Identity.ID),
		logger.ExpiresIn(cred.ExpiresIn(m.now())),
	)
	m.emit(ctx, Event{Type: EventAuthenticated, Identity: cred.Identity})
	return nil
}

// Register creates an account and returns its id. It does not log in.
// A rejected registration returns *RegistrationError.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (string, error) {
	status, raw, err := m.post(ctx, "register", req, nil)
	if err != nil {
		return "", err
	}
	if !successful(status) {
		return "", &RegistrationError{
			Status:  status,
			Message: errorMessage(raw, "registration failed"),
		}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Join(ErrDecodeResponse, err)
	}
	return out.ID, nil
}

// Logout ends the session. The server call is best effort and is skipped
// when ctx is already done; local state is always cleared and EventLoggedOut
// is emitted. Failures are logged, never returned.
func (m *Manager) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		m.logger.WarnContext(ctx, "context done, skipping logout call", logger.Error(err))
	} else {
		header := http.Header{}
		body := m.config.RefreshTransport.apply(header, m.currentSecret())
		if status, _, err := m.post(ctx, "logout", body, header); err != nil {
			m.logger.WarnContext(ctx, "logout call failed", logger.Error(err))
		} else if !successful(status) {
			m.logger.WarnContext(ctx, "logout call rejected", logger.Status(status))
		}
	}

	m.mu.Lock()
	m.epoch++
	var identity Identity
	if m.cred != nil {
		identity = m.cred.Identity
	}
	m.cred = nil
	m.secret = ""
	m.stopTimerLocked()
	m.mu.Unlock()

	if m.secrets != nil {
		if err := m.secrets.Clear(context.WithoutCancel(ctx)); err != nil {
			m.logger.WarnContext(ctx, "failed to clear refresh secret", logger.Error(err))
		}
	}

	m.logger.InfoContext(ctx, "logged out", logger.UserID(identity.ID))
	m.emit(ctx, Event{Type: EventLoggedOut, Identity: identity})
	return nil
}

// Token returns a token valid for at least Config.TokenMargin. A held token
// is returned without any network call; otherwise the caller joins the
// in-flight renewal or starts one. The boolean is false when no token could
// be obtained, ctx ended first or the manager is closed.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", false
	}
	if m.cred != nil && m.cred.ValidFor(m.now(), m.config.TokenMargin) {
		token := m.cred.AccessToken
		m.mu.Unlock()
		return token, true
	}
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// Refresh renews the token even if the held one looks valid, joining a
// renewal that is already in flight. A failed renewal keeps the held
// credential.
func (m *Manager) Refresh(ctx context.Context) (string, bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", false
	}
	epoch := m.epoch
	m.mu.Unlock()

	future, _ := m.renewals.Do(context.WithoutCancel(ctx), func(ctx context.Context) (string, error) {
		return m.renew(ctx, epoch)
	})

	token, err := future.AwaitContext(ctx)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// Start restores a previous session with a single renewal attempt. Later
// calls return the same Future. Ready is closed once the attempt resolves,
// whatever its outcome. A closed manager resolves to false without a call.
func (m *Manager) Start(ctx context.Context) *async.Future[bool] {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return async.Resolved(false, nil)
	}

	m.startOnce.Do(func() {
		m.started = async.Async(context.WithoutCancel(ctx), struct{}{}, func(ctx context.Context, _ struct{}) (bool, error) {
			_, ok := m.Refresh(ctx)
			m.markReady(ctx)
			return ok, nil
		})
	})
	return m.started
}

// Ready is closed once session restore has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until session restore has finished or ctx is done.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns a snapshot of the session: whether a credential is held,
// whether restore has finished and whether a renewal is running.
func (m *Manager) State() State {
	renewing := m.renewals.InFlight()

	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{Ready: m.isReady(), Renewing: renewing}
	if m.cred != nil {
		st.Authenticated = true
		st.Identity = m.cred.Identity
	}
	return st
}

// Identity returns the user the held credential was issued for.
func (m *Manager) Identity() (Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return Identity{}, false
	}
	return m.cred.Identity, true
}

// Credential returns a copy of the held credential.
func (m *Manager) Credential() (Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return Credential{}, false
	}
	return *m.cred, true
}

// Subscribe streams session events until ctx is done.
func (m *Manager) Subscribe(ctx context.Context) broadcast.Subscriber[Event] {
	return m.events.Subscribe(ctx)
}

// NotifyAuthRequired emits EventAuthRequired, typically after the API
// answered 401 even with a renewed token. Session state is left untouched.
func (m *Manager) NotifyAuthRequired(ctx context.Context, reason string) {
	m.logger.InfoContext(ctx, "authentication required", slog.String("reason", reason))
	m.emit(ctx, Event{Type: EventAuthRequired, Reason: reason})
}

// Close stops background renewal and closes the event broadcaster if the
// manager created it. Renewals already in flight complete but Token and
// Refresh return false afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.stopTimerLocked()
	m.mu.Unlock()

	if m.ownsEvents {
		return m.events.Close()
	}
	return nil
}

// renew performs one refresh call. Its result is discarded when a login or
// logout happened after epoch was read.
func (m *Manager) renew(ctx context.Context, epoch uint64) (string, error) {
	start := m.now()
	header := http.Header{}

	secret := m.currentSecret()
	if m.config.RefreshTransport == TransportHeader && secret == "" {
		secret = m.loadSecret(ctx)
		if secret == "" {
			return "", m.renewFailed(ctx, ErrNoRefreshSecret)
		}
	}
	body := m.config.RefreshTransport.apply(header, secret)

	status, raw, err := m.post(ctx, "refresh", body, header)
	if err != nil {
		return "", m.renewFailed(ctx, err)
	}
	if !successful(status) {
		return "", m.renewFailed(ctx, fmt.Errorf("%w: status %d", ErrRefreshRejected, status))
	}

	resp, err := decodeAuthResponse(raw)
	if err != nil {
		return "", m.renewFailed(ctx, err)
	}

	cred, ok := m.install(ctx, resp, epoch, false)
	if !ok {
		m.logger.DebugContext(ctx, "discarding stale renewal")
		token, _ := m.heldToken()
		return token, nil
	}
	m.logger.DebugContext(ctx, "token renewed",
		logger.UserID(cred.Identity.ID),
		logger.ExpiresIn(cred.ExpiresIn(m.now())),
		logger.Duration(m.now().Sub(start)),
	)
	m.emit(ctx, Event{Type: EventRefreshed, Identity: cred.Identity})
	return cred.AccessToken, nil
}

func (m *Manager) renewFailed(ctx context.Context, err error) error {
	m.logger.WarnContext(ctx, "token renewal failed", logger.Error(err))
	m.emit(ctx, Event{Type: EventRefreshFailed, Reason: err.Error()})
	return err
}

// install replaces the held credential and rearms the renewal timer. Login
// passes bump to invalidate renewals started before it; otherwise nothing is
// installed when epoch is stale or the manager is closed.
func (m *Manager) install(ctx context.Context, resp authResponse, epoch uint64, bump bool) (Credential, bool) {
	now := m.now()
	cred := newCredential(resp, now, m.config.DefaultTTL)

	m.mu.Lock()
	if bump {
		m.epoch++
	} else if m.epoch != epoch || m.closed {
		m.mu.Unlock()
		return cred, false
	}
	m.cred = &cred
	if resp.RefreshToken != "" {
		m.secret = resp.RefreshToken
	}
	m.stopTimerLocked()
	if cred.ServerExpiry && !m.closed {
		m.timer = m.afterFunc(m.config.refreshDelay(cred.ExpiresIn(now)), m.onTimer)
	}
	m.mu.Unlock()

	if resp.RefreshToken != "" && m.secrets != nil {
		if err := m.secrets.Save(context.WithoutCancel(ctx), resp.RefreshToken); err != nil {
			m.logger.WarnContext(ctx, "failed to persist refresh secret", logger.Error(err))
		}
	}
	return cred, true
}

func (m *Manager) onTimer() {
	ctx := context.Background()
	m.logger.DebugContext(ctx, "proactive renewal")
	m.Refresh(ctx)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) heldToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return "", false
	}
	return m.cred.AccessToken, true
}

func (m *Manager) currentSecret() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secret
}

func (m *Manager) loadSecret(ctx context.Context) string {
	if m.secrets == nil {
		return ""
	}
	secret, err := m.secrets.Load(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load refresh secret", logger.Error(err))
		return ""
	}
	return secret
}

func (m *Manager) markReady(ctx context.Context) {
	m.readyOnce.Do(func() {
		close(m.ready)
		m.emit(ctx, Event{Type: EventReady})
	})
}

func (m *Manager) isReady() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

func (m *Manager) emit(ctx context.Context, ev Event) {
	ev.At = m.now()
	for _, fn := range m.observers {
		fn(ev)
	}
	if err := m.events.Broadcast(ctx, broadcast.Message[Event]{Data: ev}); err != nil {
		m.logger.DebugContext(ctx, "event broadcast failed", logger.Event(string(ev.Type)), logger.Error(err))
	}
}

// post sends a JSON POST to an auth endpoint and returns the status and body.
func (m *Manager) post(ctx context.Context, name string, body any, header http.Header) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("session: encode %s request: %w", name, err)
	}

	endpoint := m.config.endpoint(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, errors.Join(ErrTransport, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if _, id := requestid.Ensure(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, errors.Join(ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthBody))
	if err != nil {
		return resp.StatusCode, nil, errors.Join(ErrTransport, err)
	}

	m.logger.DebugContext(ctx, "auth call",
		logger.Method(http.MethodPost),
		logger.URL(endpoint),
		logger.Status(resp.StatusCode),
	)
	return resp.StatusCode, raw, nil
}

func decodeAuthResponse(raw []byte) (authResponse, error) {
	var resp authResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return authResponse{}, errors.Join(ErrDecodeResponse, err)
	}
	if resp.AccessToken == "" {
		return authResponse{}, fmt.Errorf("%w: missing accessToken", ErrDecodeResponse)
	}
	return resp, nil
}

// errorMessage extracts error.message from an error envelope.
func errorMessage(raw []byte, fallback string) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Error.Message == "" {
		return fallback
	}
	return env.Error.Message
}

func successful(status int) bool {
	return status >= 200 && status < 300
}
