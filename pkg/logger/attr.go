package logger

import (
	"log/slog"
	"time"
)

// Error logs err under "error". Nil errors produce an empty attribute, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Method(method string) slog.Attr {
	return slog.String("method", method)
}

func URL(u string) slog.Attr {
	return slog.String("url", u)
}

func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// Attempt is the 1-based attempt number of a request.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// UserID logs the identity id; empty ids produce an empty attribute.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// RequestID logs a request id; empty ids produce an empty attribute.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// ExpiresIn logs how long a credential stays valid.
func ExpiresIn(d time.Duration) slog.Attr {
	return slog.Duration("expires_in", d.Round(time.Second))
}

// Group bundles attrs under name.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}
