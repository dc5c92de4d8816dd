package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the access token currently held by a Manager.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity

	// ServerExpiry is true when ExpiresAt came from the server (expiresIn or
	// the token's exp claim) rather than the fallback TTL.
	ServerExpiry bool
}

// ValidFor reports whether the token stays valid for at least margin after now.
func (c Credential) ValidFor(now time.Time, margin time.Duration) bool {
	return c.AccessToken != "" && now.Add(margin).Before(c.ExpiresAt)
}

// ExpiresIn returns the remaining lifetime, which is negative once expired.
func (c Credential) ExpiresIn(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// authResponse is the body of successful login and refresh calls.
type authResponse struct {
	AccessToken  string   `json:"accessToken"`
	User         Identity `json:"user"`
	ExpiresIn    float64  `json:"expiresIn,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
}

func newCredential(resp authResponse, now time.Time, fallback time.Duration) Credential {
	cred := Credential{
		AccessToken: resp.AccessToken,
		Identity:    resp.User,
	}

	switch {
	case resp.ExpiresIn > 0:
		cred.ExpiresAt = now.Add(time.Duration(resp.ExpiresIn * float64(time.Second)))
		cred.ServerExpiry = true
	default:
		if exp, ok := tokenExpiry(resp.AccessToken); ok {
			cred.ExpiresAt = exp
			cred.ServerExpiry = true
		} else {
			cred.ExpiresAt = now.Add(fallback)
		}
	}

	return cred
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The client cannot verify it and only uses it to schedule renewal.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
