// Package account wraps the account endpoints of the backend: profile,
// password reset and email verification.
package account

import (
	"context"
	"net/url"
	"time"

	"github.com/dmitrymomot/coachkit/pkg/apiclient"
)

// Profile is the signed-in user's record from /api/me.
type Profile struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Role      string `json:"role" yaml:"role"`
	Verified  bool   `json:"verified" yaml:"verified"`
	AvatarURL string `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty"`
}

// ProfileUpdate holds the editable profile fields. Empty fields are left
// unchanged by the server.
type ProfileUpdate struct {
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ResetCodeStatus reports whether a password reset code can still be used.
type ResetCodeStatus struct {
	Valid     bool       `json:"valid" yaml:"valid"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expires_at,omitempty"`
}

// Service calls the account endpoints through an apiclient.Client, so
// responses share its ETag cache and token handling.
type Service struct {
	api *apiclient.Client
}

// New returns a Service sending requests through api.
func New(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// Profile fetches the signed-in user. Repeated calls revalidate with the
// cached ETag.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	return apiclient.GetJSON[Profile](ctx, s.api, "/api/me")
}

// UpdateProfile applies the non-empty fields of upd and returns the profile
// as the server now holds it.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (Profile, error) {
	if err := s.api.Put(ctx, "/api/me", upd, nil); err != nil {
		return Profile{}, err
	}
	return s.Profile(ctx)
}

// DeleteAccount removes the signed-in account. The caller should log out
// afterwards.
func (s *Service) DeleteAccount(ctx context.Context) error {
	return s.api.Delete(ctx, "/api/me", nil)
}

// RequestPasswordReset asks the server to email a reset code.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.api.Post(ctx, "/api/auth/password/request", map[string]string{"email": email}, nil)
}

// VerifyResetCode checks a reset code without consuming it.
func (s *Service) VerifyResetCode(ctx context.Context, code string) (ResetCodeStatus, error) {
	return apiclient.GetJSON[ResetCodeStatus](ctx, s.api, "/api/auth/password/verify",
		apiclient.WithQuery(url.Values{"code": {code}}))
}

// CompletePasswordReset sets newPassword using a valid reset code.
func (s *Service) CompletePasswordReset(ctx context.Context, code, newPassword string) error {
	body := map[string]string{"code": code, "newPassword": newPassword}
	return s.api.Post(ctx, "/api/auth/password/complete", body, nil)
}

// VerifyEmail confirms the address with the emailed code.
func (s *Service) VerifyEmail(ctx context.Context, code string) (bool, error) {
	out, err := apiclient.PostJSON[struct {
		Verified bool `json:"verified"`
	}](ctx, s.api, "/api/auth/email/verify", map[string]string{"code": code})
	return out.Verified, err
}
