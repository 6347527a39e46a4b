// Package tracing times the stages of multi-step operations such as an
// index load. A trace is a tree of spans carried in the context. When the
// root span of a sampled trace ends, every span of the tree is logged as
// one structured record.
package tracing

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

type contextKey struct{}

// Tracer starts root spans and decides which traces get logged. A nil
// *Tracer is valid and never logs.
type Tracer struct {
	rate   float64
	sample func() float64
	logger *slog.Logger
}

func New(cfg config.TracingConfig) *Tracer {
	rate := cfg.SampleRate
	if !cfg.Enabled {
		rate = 0
	}
	return &Tracer{
		rate:   min(max(rate, 0), 1),
		sample: rand.Float64,
		logger: slog.Default().With("component", "tracing"),
	}
}

// Span is one timed stage of a trace.
type Span struct {
	name    string
	traceID string
	parent  *Span
	tracer  *Tracer
	sampled bool
	start   time.Time

	mu       sync.Mutex
	duration time.Duration
	attrs    []slog.Attr
	children []*Span
}

// Start opens a root span with a fresh trace ID.
func (t *Tracer) Start(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{
		name:    name,
		traceID: uuid.NewString(),
		tracer:  t,
		start:   time.Now(),
	}
	if t != nil && t.rate > 0 {
		s.sampled = t.rate >= 1 || t.sample() < t.rate
	}
	return context.WithValue(ctx, contextKey{}, s), s
}

// StartChild opens a span under the one in ctx. Without a parent the span
// is detached and never logged.
func StartChild(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{name: name, start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		s.parent = parent
		s.traceID = parent.traceID
		s.tracer = parent.tracer
		s.sampled = parent.sampled
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, s), s
}

func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(contextKey{}).(*Span)
	return s
}

func (s *Span) TraceID() string { return s.traceID }

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

// End stops the clock. Ending a sampled root logs the whole tree; spans
// still open at that point are logged with their elapsed time so far.
func (s *Span) End() {
	s.mu.Lock()
	s.duration = time.Since(s.start)
	s.mu.Unlock()
	if s.parent == nil && s.sampled && s.tracer != nil {
		s.log(s.tracer.logger, "", 0)
	}
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.duration == 0 {
		return time.Since(s.start)
	}
	return s.duration
}

func (s *Span) log(logger *slog.Logger, prefix string, depth int) {
	path := s.name
	if prefix != "" {
		path = strings.Join([]string{prefix, s.name}, "/")
	}
	s.mu.Lock()
	attrs := append([]slog.Attr{
		slog.String("trace_id", s.traceID),
		slog.String("span", path),
		slog.Int("depth", depth),
	}, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()
	attrs = append(attrs, slog.Duration("duration", s.Duration()))

	logger.LogAttrs(context.Background(), slog.LevelInfo, "span", attrs...)
	for _, c := range children {
		c.log(logger, path, depth+1)
	}
}
