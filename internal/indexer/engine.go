// Package indexer owns the load lifecycle of the search index: it unwraps a
// blob, decodes and normalizes it, builds the cross-reference and publishes
// the resulting snapshot atomically. Queries read the snapshot without
// locking; a failed load never replaces a good one.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
)

// LoadRecord describes one load attempt.
type LoadRecord struct {
	Version  string
	Source   string
	Trigger  string
	Crates   int
	Items    int
	Warnings int
	Duration time.Duration
	Error    string
	At       time.Time
}

// LoadRecorder persists load history.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, rec LoadRecord) error
}

type recorders []LoadRecorder

// Recorders fans a load record out to every non-nil recorder. All are
// called; their errors are joined.
func Recorders(rs ...LoadRecorder) LoadRecorder {
	var out recorders
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (rs recorders) RecordLoad(ctx context.Context, rec LoadRecord) error {
	var errs []error
	for _, r := range rs {
		if err := r.RecordLoad(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status is the engine's externally visible state.
type Status struct {
	Loaded      bool         `json:"loaded"`
	Source      string       `json:"source,omitempty"`
	CrateDocs   []string     `json:"crate_docs,omitempty"`
	Stats       *index.Stats `json:"stats,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
	LastAttempt time.Time    `json:"last_attempt,omitempty"`
}

type Engine struct {
	current  atomic.Pointer[index.Snapshot]
	loadMu   sync.Mutex
	cfg      config.IndexConfig
	metrics  *metrics.Metrics
	recorder LoadRecorder
	tracer   *tracing.Tracer
	logger   *slog.Logger

	onSwapMu sync.RWMutex
	onSwap   []func(old, cur *index.Snapshot)

	stateMu     sync.RWMutex
	source      string
	lastErr     error
	lastAttempt time.Time
}

// NewEngine creates an engine with no snapshot. Queries fail with
// ErrIndexNotLoaded until the first successful load.
func NewEngine(cfg config.IndexConfig, m *metrics.Metrics) *Engine {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
}

// SetRecorder attaches a load history sink. It must be called before the
// first load.
func (e *Engine) SetRecorder(r LoadRecorder) {
	e.recorder = r
}

// SetTracer makes loads emit spans for their decode, normalize and
// crossref phases.
func (e *Engine) SetTracer(t *tracing.Tracer) {
	e.tracer = t
}

// OnSwap registers a callback invoked after a new snapshot is published.
// old is nil on the first load.
func (e *Engine) OnSwap(fn func(old, cur *index.Snapshot)) {
	e.onSwapMu.Lock()
	defer e.onSwapMu.Unlock()
	e.onSwap = append(e.onSwap, fn)
}

// Snapshot returns the active snapshot or ErrIndexNotLoaded.
func (e *Engine) Snapshot() (*index.Snapshot, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, apperrors.ErrIndexNotLoaded
	}
	return snap, nil
}

// Reload loads the configured blob path, or the newest container in the
// data directory when no path is configured.
func (e *Engine) Reload(ctx context.Context, trigger string) (*index.Snapshot, error) {
	path := e.cfg.Path
	if path == "" {
		latest, err := segment.Latest(e.cfg.DataDir)
		if err != nil {
			return nil, e.fail(ctx, LoadRecord{Source: e.cfg.DataDir, Trigger: trigger}, err)
		}
		if latest == "" {
			return nil, e.fail(ctx, LoadRecord{Source: e.cfg.DataDir, Trigger: trigger},
				fmt.Errorf("no index file in %s: %w", e.cfg.DataDir, apperrors.ErrIndexNotLoaded))
		}
		path = latest
	}
	return e.LoadFile(ctx, path, trigger)
}

// LoadFile reads a blob in any supported format and loads it.
func (e *Engine) LoadFile(ctx context.Context, path, trigger string) (*index.Snapshot, error) {
	blob, err := segment.ReadFile(path)
	if err != nil {
		return nil, e.fail(ctx, LoadRecord{Source: path, Trigger: trigger}, err)
	}
	return e.load(ctx, blob, path, trigger)
}

// Load loads an in-memory blob in any supported format.
func (e *Engine) Load(ctx context.Context, data []byte, source, trigger string) (*index.Snapshot, error) {
	blob, err := segment.Unwrap(data)
	if err != nil {
		return nil, e.fail(ctx, LoadRecord{Source: source, Trigger: trigger}, err)
	}
	return e.load(ctx, blob, source, trigger)
}

func (e *Engine) load(ctx context.Context, blob *segment.Blob, source, trigger string) (*index.Snapshot, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	rec := LoadRecord{Version: blob.Version, Source: source, Trigger: trigger}
	if cur := e.current.Load(); cur != nil && cur.Version == blob.Version {
		e.logger.Info("index unchanged, keeping snapshot", "version", blob.Version, "source", source)
		e.setState(source, nil)
		e.metrics.IndexLoadsTotal.WithLabelValues("unchanged", trigger).Inc()
		return cur, nil
	}

	start := time.Now()
	ctx, root := e.tracer.Start(ctx, "index.load")
	root.SetAttr("version", blob.Version)
	root.SetAttr("format", string(blob.Format))

	_, span := tracing.StartChild(ctx, "decode")
	idx, err := descriptor.Decode(blob.Payload)
	span.End()
	if err != nil {
		root.End()
		return nil, e.fail(ctx, rec, err)
	}

	_, span = tracing.StartChild(ctx, "normalize")
	norm := typesig.Normalize(idx)
	span.SetAttr("warnings", len(norm.Warnings))
	span.End()

	_, span = tracing.StartChild(ctx, "crossref")
	snap := index.NewSnapshot(blob.Version, idx, norm)
	span.SetAttr("type_keys", snap.XRef.Keys())
	span.End()

	root.End()

	old := e.current.Swap(snap)
	duration := time.Since(start)
	e.setState(source, nil)

	e.metrics.IndexLoadsTotal.WithLabelValues("ok", trigger).Inc()
	e.metrics.IndexLoadDuration.Observe(duration.Seconds())
	e.metrics.IndexedItems.Set(float64(len(idx.Items)))
	e.metrics.IndexedTypeKeys.Set(float64(snap.XRef.Keys()))
	e.metrics.NormalizeWarnings.Set(float64(len(norm.Warnings)))

	e.logger.Info("index loaded",
		"version", snap.Version,
		"source", source,
		"trigger", trigger,
		"crates", len(idx.Crates),
		"items", len(idx.Items),
		"signed", len(snap.XRef.Signed()),
		"type_keys", snap.XRef.Keys(),
		"warnings", len(norm.Warnings),
		"duration", duration,
	)

	rec.Crates = len(idx.Crates)
	rec.Items = len(idx.Items)
	rec.Warnings = len(norm.Warnings)
	rec.Duration = duration
	e.record(ctx, rec)

	e.onSwapMu.RLock()
	callbacks := append([]func(old, cur *index.Snapshot){}, e.onSwap...)
	e.onSwapMu.RUnlock()
	for _, fn := range callbacks {
		fn(old, snap)
	}
	return snap, nil
}

// fail records a failed attempt. The active snapshot, if any, is kept.
func (e *Engine) fail(ctx context.Context, rec LoadRecord, err error) error {
	e.setState("", err)
	e.metrics.IndexLoadsTotal.WithLabelValues("error", rec.Trigger).Inc()
	attrs := []any{"source", rec.Source, "trigger", rec.Trigger, "error", err}
	if cur := e.current.Load(); cur != nil {
		attrs = append(attrs, "serving_version", cur.Version)
	}
	e.logger.Error("index load failed", attrs...)
	rec.Error = err.Error()
	e.record(ctx, rec)
	return fmt.Errorf("loading index from %s: %w", rec.Source, err)
}

func (e *Engine) record(ctx context.Context, rec LoadRecord) {
	if e.recorder == nil {
		return
	}
	rec.At = time.Now()
	if err := e.recorder.RecordLoad(ctx, rec); err != nil {
		e.logger.Warn("recording load history failed", "error", err)
	}
}

func (e *Engine) setState(source string, err error) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.lastAttempt = time.Now()
	e.lastErr = err
	if err == nil {
		e.source = source
	}
}

// Status reports whether a snapshot is active and what it holds.
func (e *Engine) Status() Status {
	e.stateMu.RLock()
	st := Status{Source: e.source, LastAttempt: e.lastAttempt}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	e.stateMu.RUnlock()

	snap := e.current.Load()
	if snap == nil {
		return st
	}
	stats := snap.Stats()
	st.Loaded = true
	st.Stats = &stats
	for _, c := range snap.Index.Crates {
		st.CrateDocs = append(st.CrateDocs, c.Name+": "+c.Doc)
	}
	return st
}

// IsNotLoaded reports whether err means no snapshot is available.
func IsNotLoaded(err error) bool {
	return errors.Is(err, apperrors.ErrIndexNotLoaded)
}
