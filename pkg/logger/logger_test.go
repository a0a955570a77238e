package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewHonorsLevel(t *testing.T) {
	ctx := context.Background()
	assert.False(t, New(slog.LevelWarn).Enabled(ctx, slog.LevelInfo))
	assert.True(t, New(slog.LevelWarn).Enabled(ctx, slog.LevelError))
	assert.True(t, New(slog.LevelDebug).Enabled(ctx, slog.LevelDebug))
}
