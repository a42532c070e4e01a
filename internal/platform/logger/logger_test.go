package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactingHandlerMasksKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	h := NewRedactingHandler(inner, []string{"password", "token"})

	l := slog.New(h)
	l.Info("login", slog.String("username", "alice"), slog.String("Password", "hunter2"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "alice", rec["username"])
	assert.Equal(t, "[REDACTED]", rec["Password"])
}

func TestRedactingHandlerMasksDigests(t *testing.T) {
	var buf bytes.Buffer
	h := NewRedactingHandler(slog.NewJSONHandler(&buf, nil), nil)

	slog.New(h).Info("seed", slog.String("hash", "$2b$10$abcdefghijklmnopqrstuv"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "[REDACTED]", rec["hash"])
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	l := slog.New(h)
	l.Info("visible to a only")
	l.Error("visible to both")

	assert.Contains(t, a.String(), "visible to a only")
	assert.NotContains(t, b.String(), "visible to a only")
	assert.Contains(t, b.String(), "visible to both")
}

func TestMultiHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFromString("debug"))
	assert.Equal(t, slog.LevelWarn, levelFromString("WARN"))
	assert.Equal(t, slog.LevelInfo, levelFromString("nonsense"))
}

func TestNewAndClose(t *testing.T) {
	l := New(Options{Env: "dev", App: "gymlog-test", File: t.TempDir() + "/test.log"})
	require.NotNil(t, l)
	l.Info("hello", slog.String("password", "secret"))
	assert.NoError(t, Close(l))
	// Second close is a no-op.
	assert.NoError(t, Close(l))
}
