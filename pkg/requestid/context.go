package requestid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, ok := ctx.Value(contextKey{}).(string)
	if !ok {
		return ""
	}
	return requestID
}

// New returns a fresh request ID.
func New() string {
	return uuid.NewString()
}

// Ensure returns ctx unchanged when it already carries a valid request ID,
// otherwise a child context with a new one. The ID in effect is returned too.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); isValidRequestID(id) {
		return ctx, id
	}
	id := New()
	return WithContext(ctx, id), id
}
