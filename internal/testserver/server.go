// Package testserver runs an in-process fake of the coaching backend's auth
// and account endpoints for tests.
package testserver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/coachkit/pkg/requestid"
)

// Route names accepted by Calls and LastRequest.
const (
	RouteLogin           = "login"
	RouteRegister        = "register"
	RouteLogout          = "logout"
	RouteRefresh         = "refresh"
	RouteMe              = "me"
	RouteMeUpdate        = "me_update"
	RouteMeDelete        = "me_delete"
	RoutePasswordRequest = "password_request"
	RoutePasswordVerify  = "password_verify"
	RoutePasswordDone    = "password_complete"
	RouteEmailVerify     = "email_verify"
)

const (
	refreshCookie = "refresh_token"
	refreshHeader = "X-Refresh-Token"
	AdminSecret   = "let-me-in"
	ResetCode     = "123456"
	VerifyCode    = "654321"
)

// User is a backend account.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	Avatar   string `json:"avatarUrl,omitempty"`
	password string
}

// Server is a fake backend. Configure it before issuing requests.
type Server struct {
	*httptest.Server

	router *chi.Mux
	key    []byte

	tokenTTL      time.Duration
	omitExpiresIn bool
	refreshDelay  time.Duration

	refreshStatus atomic.Int64

	mu       sync.Mutex
	users    map[string]*User
	refresh  map[string]string
	calls    map[string]*atomic.Int64
	requests map[string]*http.Request
}

// Option configures a Server before it starts.
type Option func(*Server)

// WithTokenTTL sets the access token lifetime. Zero issues tokens without
// expiresIn or an exp claim.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithoutExpiresIn leaves expiresIn out of auth responses; the JWT exp claim
// still carries the expiry.
func WithoutExpiresIn() Option {
	return func(s *Server) { s.omitExpiresIn = true }
}

// WithRefreshDelay stalls every refresh call.
func WithRefreshDelay(d time.Duration) Option {
	return func(s *Server) { s.refreshDelay = d }
}

// New starts a server with one member account a@b.com / x. Close it when done.
func New(opts ...Option) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		key:      []byte("testserver-signing-key"),
		tokenTTL: time.Hour,
		users:    make(map[string]*User),
		refresh:  make(map[string]string),
		calls:    make(map[string]*atomic.Int64),
		requests: make(map[string]*http.Request),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.AddUser(User{ID: "1", Email: "a@b.com", Role: "member"}, "x")

	s.router.Use(requestid.Middleware)
	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.track(RouteLogin, s.handleLogin))
		r.Post("/register", s.track(RouteRegister, s.handleRegister))
		r.Post("/logout", s.track(RouteLogout, s.handleLogout))
		r.Post("/refresh", s.track(RouteRefresh, s.handleRefresh))
		r.Post("/password/request", s.track(RoutePasswordRequest, s.handlePasswordRequest))
		r.Get("/password/verify", s.track(RoutePasswordVerify, s.handlePasswordVerify))
		r.Post("/password/complete", s.track(RoutePasswordDone, s.handlePasswordComplete))
		r.Post("/email/verify", s.track(RouteEmailVerify, s.handleEmailVerify))
	})
	s.router.Get("/api/me", s.track(RouteMe, s.requireAuth(http.HandlerFunc(s.handleMe)).ServeHTTP))
	s.router.Put("/api/me", s.track(RouteMeUpdate, s.requireAuth(http.HandlerFunc(s.handleMeUpdate)).ServeHTTP))
	s.router.Delete("/api/me", s.track(RouteMeDelete, s.requireAuth(http.HandlerFunc(s.handleMeDelete)).ServeHTTP))

	s.Server = httptest.NewServer(s.router)
	return s
}

// Router exposes the mux so tests can mount extra endpoints.
func (s *Server) Router() chi.Router {
	return s.router
}

// Track wraps h so its calls are counted under name.
func (s *Server) Track(name string, h http.HandlerFunc) http.HandlerFunc {
	return s.track(name, h)
}

// RequireAuth rejects requests without a valid bearer token.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return s.requireAuth(next)
}

// AddUser registers an account.
func (s *Server) AddUser(u User, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.password = password
	s.users[u.Email] = &u
}

// FailRefresh makes refresh calls answer status; 0 restores normal behavior.
func (s *Server) FailRefresh(status int) {
	s.refreshStatus.Store(int64(status))
}

// Calls returns how many requests hit the named route.
func (s *Server) Calls(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.calls[name]; ok {
		return c.Load()
	}
	return 0
}

// TotalCalls sums Calls over every route.
func (s *Server) TotalCalls() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.calls {
		n += c.Load()
	}
	return n
}

// LastRequest returns the most recent request on the named route.
func (s *Server) LastRequest(name string) *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[name]
}

// IssueToken mints an access token for the user with email.
func (s *Server) IssueToken(email string, ttl time.Duration) string {
	s.mu.Lock()
	u := s.users[email]
	s.mu.Unlock()
	if u == nil {
		return ""
	}
	return s.sign(u, ttl)
}

func (s *Server) track(name string, h http.HandlerFunc) http.HandlerFunc {
	s.mu.Lock()
	c, ok := s.calls[name]
	if !ok {
		c = &atomic.Int64{}
		s.calls[name] = c
	}
	s.mu.Unlock()

	return func(w http.ResponseWriter, r *http.Request) {
		c.Add(1)
		s.mu.Lock()
		s.requests[name] = r.Clone(r.Context())
		s.mu.Unlock()
		h(w, r)
	}
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) sign(u *User, ttl time.Duration) string {
	claims := accessClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  u.Email,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) parse(raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}
