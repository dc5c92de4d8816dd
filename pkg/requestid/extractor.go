package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/coachkit/pkg/logger"
)

// LoggerExtractor adds the request ID carried by ctx to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := FromContext(ctx)
		if id == "" {
			return slog.Attr{}, false
		}
		return logger.RequestID(id), true
	}
}
