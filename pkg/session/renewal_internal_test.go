package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type timerRecorder struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (r *timerRecorder) afterFunc(d time.Duration, fn func()) stopper {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	r.timers = append(r.timers, t)
	return t
}

func (r *timerRecorder) all() []*fakeTimer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeTimer(nil), r.timers...)
}

// authServer answers login and refresh with the given expiresIn.
func authServer(t *testing.T, expiresIn float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authResponse{
			AccessToken: "T-" + r.URL.Path,
			User:        Identity{ID: "1", Role: RoleMember},
			ExpiresIn:   expiresIn,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProactiveRenewalDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		expiresIn float64
		want      time.Duration
	}{
		{name: "skew before expiry", expiresIn: 40, want: 30 * time.Second},
		{name: "minimum delay", expiresIn: 5, want: time.Second},
		{name: "long lived", expiresIn: 3600, want: 3590 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := authServer(t, tt.expiresIn)
			rec := &timerRecorder{}
			now := time.Now()
			m := New(srv.URL, WithClock(func() time.Time { return now }))
			m.afterFunc = rec.afterFunc

			require.NoError(t, m.Login(context.Background(), "a@b.com", "x"))

			timers := rec.all()
			require.Len(t, timers, 1)
			assert.Equal(t, tt.want, timers[0].delay)
		})
	}
}

func TestProactiveRenewal_RearmAndFire(t *testing.T) {
	t.Parallel()
	srv := authServer(t, 40)
	rec := &timerRecorder{}
	m := New(srv.URL)
	m.afterFunc = rec.afterFunc
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "a@b.com", "x"))
	require.Len(t, rec.all(), 1)

	// Firing the timer renews and arms a new timer, stopping the old one.
	rec.all()[0].fn()
	timers := rec.all()
	require.Len(t, timers, 2)
	assert.True(t, timers[0].stopped)
	assert.False(t, timers[1].stopped)

	token, ok := m.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "T-/api/auth/refresh", token)

	require.NoError(t, m.Logout(ctx))
	assert.True(t, rec.all()[1].stopped)
}

func TestProactiveRenewal_NotArmedWithoutServerExpiry(t *testing.T) {
	t.Parallel()
	srv := authServer(t, 0)
	rec := &timerRecorder{}
	m := New(srv.URL)
	m.afterFunc = rec.afterFunc

	require.NoError(t, m.Login(context.Background(), "a@b.com", "x"))
	assert.Empty(t, rec.all())
}

func TestRenewal_DiscardedAfterLogout(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/logout":
			w.WriteHeader(http.StatusNoContent)
			return
		case "/api/auth/refresh":
			close(entered)
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authResponse{AccessToken: "T-" + r.URL.Path, ExpiresIn: 3600})
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL)
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, "a@b.com", "x"))

	type result struct {
		token string
		ok    bool
	}
	done := make(chan result, 1)
	go func() {
		token, ok := m.Refresh(ctx)
		done <- result{token, ok}
	}()

	<-entered
	require.NoError(t, m.Logout(ctx))
	close(release)

	res := <-done
	assert.False(t, res.ok)
	assert.Empty(t, res.token)
	assert.False(t, m.State().Authenticated)
}

func TestNewCredential(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expiresIn wins", func(t *testing.T) {
		t.Parallel()
		cred := newCredential(authResponse{AccessToken: "opaque", ExpiresIn: 3600}, now, 10*time.Minute)
		assert.Equal(t, now.Add(time.Hour), cred.ExpiresAt)
		assert.True(t, cred.ServerExpiry)
	})

	t.Run("jwt exp claim", func(t *testing.T) {
		t.Parallel()
		exp := now.Add(45 * time.Minute)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("k"))
		require.NoError(t, err)

		cred := newCredential(authResponse{AccessToken: token}, now, 10*time.Minute)
		assert.True(t, cred.ExpiresAt.Equal(exp))
		assert.True(t, cred.ServerExpiry)
	})

	t.Run("fallback ttl", func(t *testing.T) {
		t.Parallel()
		cred := newCredential(authResponse{AccessToken: "opaque"}, now, 10*time.Minute)
		assert.Equal(t, now.Add(10*time.Minute), cred.ExpiresAt)
		assert.False(t, cred.ServerExpiry)
	})
}

func TestCredential_ValidFor(t *testing.T) {
	t.Parallel()
	now := time.Now()
	cred := Credential{AccessToken: "T", ExpiresAt: now.Add(time.Minute)}

	assert.True(t, cred.ValidFor(now, 30*time.Second))
	assert.False(t, cred.ValidFor(now.Add(31*time.Second), 30*time.Second))
	assert.False(t, Credential{ExpiresAt: now.Add(time.Hour)}.ValidFor(now, 0))
}
