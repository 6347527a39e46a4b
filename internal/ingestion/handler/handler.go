// Package handler serves the blob publishing API of the indexer service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

// VersionLister is satisfied by *publisher.PostgresVersions.
type VersionLister interface {
	List(ctx context.Context, limit int) ([]ingestion.Version, error)
}

type Handler struct {
	publisher *publisher.Publisher
	versions  VersionLister
	maxBytes  int64
	logger    *slog.Logger
}

// New creates the handler. versions may be nil when no history is kept.
func New(pub *publisher.Publisher, versions VersionLister, maxBytes int) *Handler {
	if maxBytes <= 0 {
		maxBytes = validator.DefaultMaxBytes
	}
	return &Handler{
		publisher: pub,
		versions:  versions,
		maxBytes:  int64(maxBytes),
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/blobs", h.Publish)
	mux.HandleFunc("GET /api/v1/versions", h.Versions)
}

// Publish serves POST /api/v1/blobs. The body is the blob in any supported
// format; ?source= labels it in the version history.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, apperrors.HTTPStatusCode(apperrors.ErrBlobTooLarge), "blob too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "reading body failed")
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	resp, err := h.publisher.Publish(ctx, data, source)
	if err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			h.writeJSON(w, apperrors.HTTPStatusCode(ve), map[string]any{
				"error":  "validation failed",
				"fields": ve.Fields,
			})
			return
		}
		status := apperrors.HTTPStatusCode(err)
		log.Error("publish failed", "error", err, "status_code", status)
		h.writeError(w, status, "publish failed")
		return
	}

	status := http.StatusCreated
	if resp.Status == "duplicate" {
		status = http.StatusOK
	}
	log.Info("blob published", "version", resp.Version, "status", resp.Status)
	h.writeJSON(w, status, resp)
}

// Versions serves GET /api/v1/versions?limit=, newest first.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	if h.versions == nil {
		h.writeError(w, http.StatusNotFound, "version history is not kept")
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 1000 {
			h.writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	versions, err := h.versions.List(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("listing versions failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "listing versions failed")
		return
	}
	if versions == nil {
		versions = []ingestion.Version{}
	}
	h.writeJSON(w, http.StatusOK, versions)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
