package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxUserKey struct{}

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	User         *User  `json:"user"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
	RefreshToken string `json:"refreshToken"`
}

// startSession mints an access token plus a rotated refresh token, and sets
// the refresh cookie.
func (s *Server) startSession(w http.ResponseWriter, u *User) {
	refresh := uuid.NewString()

	s.mu.Lock()
	s.refresh[hashToken(refresh)] = u.Email
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     "/api/auth",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp := authResponse{
		AccessToken:  s.sign(u, s.tokenTTL),
		User:         u,
		RefreshToken: refresh,
	}
	if !s.omitExpiresIn && s.tokenTTL > 0 {
		resp.ExpiresIn = int64(s.tokenTTL / time.Second)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}

	s.mu.Lock()
	u := s.users[req.Email]
	s.mu.Unlock()
	if u == nil || u.password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	s.startSession(w, u)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		Name        string `json:"name"`
		Role        string `json:"role"`
		AdminSecret string `json:"adminSecret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	if req.Email == "" || len(req.Password) < 1 {
		writeError(w, http.StatusUnprocessableEntity, "validation", "email and password are required")
		return
	}
	role := req.Role
	if role == "" {
		role = "member"
	}
	if role == "admin" && req.AdminSecret != AdminSecret {
		writeError(w, http.StatusForbidden, "forbidden", "invalid admin secret")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeError(w, http.StatusConflict, "conflict", "email already registered")
		return
	}
	u := &User{ID: uuid.NewString(), Email: req.Email, Name: req.Name, Role: role, password: req.Password}
	s.users[u.Email] = u
	writeJSON(w, http.StatusCreated, map[string]string{"id": u.ID})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := refreshTokenFrom(r); token != "" {
		s.mu.Lock()
		delete(s.refresh, hashToken(token))
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: "", Path: "/api/auth", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if d := s.refreshDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}
	if status := int(s.refreshStatus.Load()); status != 0 {
		writeError(w, status, "refresh_failed", "refresh unavailable")
		return
	}

	token := refreshTokenFrom(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "no_session", "no session")
		return
	}

	s.mu.Lock()
	email, ok := s.refresh[hashToken(token)]
	if ok {
		delete(s.refresh, hashToken(token))
	}
	u := s.users[email]
	s.mu.Unlock()

	if !ok || u == nil {
		writeError(w, http.StatusUnauthorized, "no_session", "no session")
		return
	}
	s.startSession(w, u)
}

// refreshTokenFrom accepts the header, the JSON body, then the cookie.
func refreshTokenFrom(r *http.Request) string {
	if v := r.Header.Get(refreshHeader); v != "" {
		return v
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing token")
			return
		}
		claims, err := s.parse(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		s.mu.Lock()
		u := s.users[claims.Subject]
		s.mu.Unlock()
		if u == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
	})
}

// UserFrom returns the authenticated user inside handlers behind RequireAuth.
func UserFrom(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(ctxUserKey{}).(*User)
	return u, ok
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r)

	s.mu.Lock()
	snapshot := *u
	s.mu.Unlock()

	payload, _ := json.Marshal(snapshot)
	etag := fmt.Sprintf("%q", hashToken(string(payload))[:16])
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, map[string]any{"data": snapshot})
}

func (s *Server) handleMeUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r)
	var req struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	s.mu.Lock()
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.AvatarURL != "" {
		u.Avatar = req.AvatarURL
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMeDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r)
	s.mu.Lock()
	delete(s.users, u.Email)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePasswordRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation", "email is required")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePasswordVerify(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"valid": false}
	if r.URL.Query().Get("code") == ResetCode {
		status["valid"] = true
		status["expiresAt"] = time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": status})
}

func (s *Server) handlePasswordComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	if req.Code != ResetCode {
		writeError(w, http.StatusUnprocessableEntity, "invalid_code", "invalid or expired code")
		return
	}
	s.mu.Lock()
	if u := s.users["a@b.com"]; u != nil {
		u.password = req.NewPassword
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleEmailVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	if req.Code != VerifyCode {
		writeJSON(w, http.StatusOK, map[string]any{"verified": false})
		return
	}
	s.mu.Lock()
	if u := s.users["a@b.com"]; u != nil {
		u.Verified = true
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"verified": true})
}
