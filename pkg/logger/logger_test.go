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

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo+2, ParseLevel("info+2"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestFromContextCarriesRequestAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	SetupWriter(&buf, "debug", "json")
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithAttrs(ctx, "session", "tab-1")
	child := WithAttrs(ctx, "seq", 3)
	FromContext(child).Info("search completed")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "tab-1", rec["session"])
	assert.Equal(t, float64(3), rec["seq"])
	assert.Equal(t, "req-1", RequestID(child))

	buf.Reset()
	FromContext(ctx).Info("parent")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	_, hasSeq := rec["seq"]
	assert.False(t, hasSeq, "child attributes do not leak into the parent")
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "text").Debug("hidden")
	assert.Empty(t, buf.String())
	New(&buf, "info", "TEXT").Info("shown", "k", "v")
	assert.Contains(t, buf.String(), "k=v")
}
