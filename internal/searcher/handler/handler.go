// Package handler serves the search HTTP API: queries with stale-response
// discard, index status and reload, and cache administration.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/presenter"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/middleware"
)

// IndexController is satisfied by *indexer.Engine.
type IndexController interface {
	Status() indexer.Status
	Reload(ctx context.Context, trigger string) (*index.Snapshot, error)
}

// SearchResponse is the body of GET /api/v1/search. A stale response
// carries no results: a newer query of the same session has been seen.
type SearchResponse struct {
	Query    string             `json:"query"`
	Seq      uint64             `json:"seq,omitempty"`
	Stale    bool               `json:"stale"`
	Degraded bool               `json:"degraded"`
	Version  string             `json:"version,omitempty"`
	Total    int                `json:"total"`
	Results  []presenter.Record `json:"results"`
}

type Handler struct {
	executor     *executor.Executor
	cache        *cache.QueryCache
	sessions     *executor.Tracker
	index        IndexController
	tracker      analytics.Tracker
	defaultLimit int
	maxResults   int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// New wires a handler. queryCache and tracker may be nil.
func New(
	exec *executor.Executor,
	queryCache *cache.QueryCache,
	sessions *executor.Tracker,
	idx IndexController,
	tracker analytics.Tracker,
	cfg config.SearchConfig,
	m *metrics.Metrics,
) *Handler {
	if m == nil {
		m = metrics.NewNop()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = presenter.DefaultMaxResults
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 || defaultLimit > maxResults {
		defaultLimit = maxResults
	}
	return &Handler{
		executor:     exec,
		cache:        queryCache,
		sessions:     sessions,
		index:        idx,
		tracker:      tracker,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		metrics:      m,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index", h.IndexStatus)
	mux.HandleFunc("POST /api/v1/index/reload", h.Reload)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	params := r.URL.Query()

	if !params.Has("q") {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	raw := params.Get("q")

	limit := h.defaultLimit
	if s := params.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, h.maxResults)
	}

	var (
		session   *executor.Session
		sessionID = r.Header.Get(middleware.SessionHeader)
		seq       uint64
	)
	if s := params.Get("seq"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "seq must be a non-negative integer"))
			return
		}
		seq = n
	}
	if sessionID != "" {
		ctx = logger.WithAttrs(ctx, "session", sessionID)
	}
	log := logger.FromContext(ctx)
	if sessionID != "" && h.sessions != nil {
		session = h.sessions.Session(sessionID)
		if seq == 0 {
			seq = session.Next()
		} else if !session.Observe(seq) {
			h.discard(ctx, w, raw, sessionID, seq)
			return
		}
	}

	snap, err := h.executor.Snapshot()
	if err != nil {
		log.Warn("search rejected", "query", raw, "error", err)
		h.metrics.SearchQueriesTotal.WithLabelValues("unavailable").Inc()
		h.writeError(w, err)
		return
	}

	q := parser.Parse(raw)
	compute := func() (*executor.SearchResult, error) {
		return h.executor.Run(ctx, q, snap, limit)
	}
	var (
		result *executor.SearchResult
		status = cache.StatusMiss
	)
	if h.cache != nil {
		result, status, err = h.cache.GetOrCompute(ctx, cache.Key(snap.Version, q, limit), compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug("search cancelled by client", "query", raw)
			return
		}
		log.Error("search execution failed", "query", raw, "error", err)
		h.writeError(w, err)
		return
	}

	if session != nil && !session.Deliver(seq) {
		h.discard(ctx, w, raw, sessionID, seq)
		return
	}

	took := time.Since(start)
	h.metrics.SearchLatency.WithLabelValues(string(status)).Observe(took.Seconds())
	log.Info("search completed",
		"query", raw,
		"total", result.Total,
		"returned", len(result.Results),
		"cache", status,
		"took", took,
	)
	if h.tracker != nil {
		h.tracker.TrackSearch(analytics.SearchEvent{
			Type:        analytics.EventSearch,
			Query:       raw,
			Name:        q.Name,
			Signature:   q.Sig != nil,
			Degraded:    q.Degraded,
			Total:       result.Total,
			Returned:    len(result.Results),
			LatencyMs:   took.Milliseconds(),
			CacheStatus: string(status),
			Version:     result.Version,
			Session:     sessionID,
			Seq:         seq,
			Timestamp:   time.Now().UTC(),
			RequestID:   middleware.GetRequestID(ctx),
		})
	}

	results := result.Results
	if results == nil {
		results = []presenter.Record{}
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:    raw,
		Seq:      seq,
		Degraded: q.Degraded,
		Version:  result.Version,
		Total:    result.Total,
		Results:  results,
	})
}

// discard answers a superseded request without results.
func (h *Handler) discard(ctx context.Context, w http.ResponseWriter, raw, sessionID string, seq uint64) {
	h.metrics.StaleDiscardsTotal.Inc()
	logger.FromContext(ctx).Debug("stale search discarded", "query", raw, "seq", seq)
	if h.tracker != nil {
		h.tracker.TrackSearch(analytics.SearchEvent{
			Type:      analytics.EventStale,
			Query:     raw,
			Session:   sessionID,
			Seq:       seq,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:   raw,
		Seq:     seq,
		Stale:   true,
		Results: []presenter.Record{},
	})
}

func (h *Handler) IndexStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.index.Status())
}

// Reload re-reads the configured blob. A corrupt blob leaves the current
// snapshot in place and answers 422.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.index.Reload(r.Context(), "api")
	if err != nil {
		h.logger.Error("index reload failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "loaded",
		"version": snap.Version,
		"stats":   snap.Stats(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "remote_keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its HTTP status. Internal failures are reported
// without detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	} else if status == http.StatusInternalServerError {
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
