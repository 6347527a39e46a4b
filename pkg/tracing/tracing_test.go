package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

func capture(t *Tracer) *bytes.Buffer {
	var buf bytes.Buffer
	t.logger = slog.New(slog.NewJSONHandler(&buf, nil))
	return &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSampledTraceLogsTree(t *testing.T) {
	tr := New(config.TracingConfig{Enabled: true, SampleRate: 1})
	buf := capture(tr)

	ctx, root := tr.Start(context.Background(), "index.load")
	root.SetAttr("version", "abc")
	_, decode := StartChild(ctx, "decode")
	decode.SetAttr("items", 14)
	decode.End()
	assert.Empty(t, buf.String(), "children are logged with their root")
	root.End()

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "index.load", recs[0]["span"])
	assert.Equal(t, "abc", recs[0]["version"])
	assert.Equal(t, "index.load/decode", recs[1]["span"])
	assert.Equal(t, float64(1), recs[1]["depth"])
	assert.Equal(t, recs[0]["trace_id"], recs[1]["trace_id"])
}

func TestUnsampledTracesStaySilent(t *testing.T) {
	for _, cfg := range []config.TracingConfig{
		{Enabled: false, SampleRate: 1},
		{Enabled: true, SampleRate: 0},
	} {
		tr := New(cfg)
		buf := capture(tr)
		_, root := tr.Start(context.Background(), "op")
		root.End()
		assert.Empty(t, buf.String())
	}

	tr := New(config.TracingConfig{Enabled: true, SampleRate: 0.5})
	buf := capture(tr)
	tr.sample = func() float64 { return 0.7 }
	_, root := tr.Start(context.Background(), "op")
	root.End()
	assert.Empty(t, buf.String())

	tr.sample = func() float64 { return 0.2 }
	_, root = tr.Start(context.Background(), "op")
	root.End()
	assert.NotEmpty(t, buf.String())
}

func TestNilTracerAndDetachedSpans(t *testing.T) {
	var tr *Tracer
	ctx, root := tr.Start(context.Background(), "op")
	assert.NotEmpty(t, root.TraceID())
	_, child := StartChild(ctx, "step")
	assert.Equal(t, root.TraceID(), child.TraceID())
	child.End()
	root.End()

	_, detached := StartChild(context.Background(), "orphan")
	detached.End()
	assert.Empty(t, detached.TraceID())
	assert.Nil(t, FromContext(context.Background()))
}
