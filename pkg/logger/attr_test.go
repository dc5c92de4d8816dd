package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coachkit/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestEmptyValuesAreDropped(t *testing.T) {
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
	assert.Equal(t, "user_id", logger.UserID("42").Key)
}

func TestRequestAttrs(t *testing.T) {
	assert.Equal(t, int64(401), logger.Status(401).Value.Int64())
	assert.Equal(t, int64(2), logger.Attempt(2).Value.Int64())
	assert.Equal(t, "GET", logger.Method("GET").Value.String())
	assert.Equal(t, 30*time.Second, logger.ExpiresIn(30400*time.Millisecond).Value.Duration())
}

func TestGroup(t *testing.T) {
	attr := logger.Group("req", logger.Method("GET"), logger.Status(200))
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "method", g[0].Key)
	assert.Equal(t, "status", g[1].Key)
}
