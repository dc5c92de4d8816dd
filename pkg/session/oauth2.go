package session

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource adapts the manager to oauth2.TokenSource so that clients built
// with oauth2.NewClient share this session. ctx bounds every renewal the
// source triggers.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, m: m}
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	token, ok := s.m.Token(s.ctx)
	if !ok {
		return nil, ErrNoSession
	}

	t := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if cred, ok := s.m.Credential(); ok && cred.AccessToken == token {
		// Report expiry early so oauth2.ReuseTokenSource asks again before
		// the manager would renew.
		t.Expiry = cred.ExpiresAt.Add(-s.m.config.TokenMargin)
	}
	return t, nil
}
