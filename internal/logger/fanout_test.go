package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanoutHandlerRespectsOutputLevels(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		nil,
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	log := slog.New(h).With("module", "recording")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	log.Info("recorded sentence", "index", 2)
	log.Warn("sentence audio missing")

	assert.NotContains(t, console.String(), "recorded sentence")
	assert.Contains(t, console.String(), "sentence audio missing")
	assert.Contains(t, console.String(), "module=recording")
	assert.Contains(t, file.String(), `"msg":"recorded sentence"`)
	assert.Contains(t, file.String(), `"module":"recording"`)
}

func TestFanoutHandlerEmpty(t *testing.T) {
	t.Parallel()

	h := newFanoutHandler()
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	assert.NoError(t, h.WithGroup("g").Handle(context.Background(), slog.Record{}))
}
