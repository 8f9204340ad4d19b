package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerPrintsModuleAndAttributes(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewHandlerWithWriter(&out, nil)).With("module", "movie")

	logger.Info("frame dropped", "reason", "buffer", "count", 3)

	line := out.String()
	assert.Contains(t, line, "[movie] ")
	assert.Contains(t, line, "frame dropped")
	assert.Contains(t, line, "count=3 reason=buffer")
	assert.NotContains(t, line, "module=")
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestHandlerRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewHandlerWithWriter(&out, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("hidden")
	assert.Empty(t, out.String())
	logger.Warn("shown")
	assert.Contains(t, out.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
