package session

import (
	"fmt"
	"net/http"
	"strings"
)

// RefreshTransport defines how the refresh secret reaches the refresh endpoint.
type RefreshTransport string

const (
	// TransportCookie relies on the http.Client cookie jar; the request body is {}.
	TransportCookie RefreshTransport = "cookie"

	// TransportHeader sends the secret in RefreshHeader and as {"refreshToken": ...}.
	TransportHeader RefreshTransport = "header"
)

// RefreshHeader carries the refresh secret in header transport mode.
const RefreshHeader = "X-Refresh-Token"

// ParseRefreshTransport accepts "cookie" and "header", case-insensitively.
// An empty string selects cookie transport.
func ParseRefreshTransport(s string) (RefreshTransport, error) {
	switch t := RefreshTransport(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TransportCookie, nil
	case TransportCookie, TransportHeader:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransport, s)
	}
}

func (t *RefreshTransport) UnmarshalText(text []byte) error {
	parsed, err := ParseRefreshTransport(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t RefreshTransport) String() string {
	return string(t)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// apply decorates a refresh or logout request. Cookie transport leaves the
// header alone and sends an empty object.
func (t RefreshTransport) apply(header http.Header, secret string) any {
	if t != TransportHeader || secret == "" {
		return struct{}{}
	}
	header.Set(RefreshHeader, secret)
	return refreshRequest{RefreshToken: secret}
}
