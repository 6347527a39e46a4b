package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion/publisher"
)

func post(h *Handler, body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Publish(rec, httptest.NewRequest(http.MethodPost, "/api/v1/blobs?source=ci", bytes.NewReader(body)))
	return rec
}

func TestPublishEndpoint(t *testing.T) {
	h := New(publisher.New(segment.NewWriter(t.TempDir()), nil, nil, 0), nil, 0)

	rec := post(h, indextest.ScenarioBlob())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp ingestion.PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "published", resp.Status)
	assert.Equal(t, 14, resp.Items)

	rec = post(h, []byte("not an index"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "fields")

	rec = post(h, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishRejectsOversizedBody(t *testing.T) {
	h := New(publisher.New(segment.NewWriter(t.TempDir()), nil, nil, 16), nil, 16)
	rec := post(h, indextest.ScenarioBlob())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type fixedVersions struct {
	list []ingestion.Version
	err  error
	got  int
}

func (f *fixedVersions) List(_ context.Context, limit int) ([]ingestion.Version, error) {
	f.got = limit
	return f.list, f.err
}

func getVersions(h *Handler, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestVersionsEndpoint(t *testing.T) {
	pub := publisher.New(segment.NewWriter(t.TempDir()), nil, nil, 0)

	rec := getVersions(New(pub, nil, 0), "/api/v1/versions")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	lister := &fixedVersions{list: []ingestion.Version{{Version: "0badc0de", Items: 14}}}
	h := New(pub, lister, 0)
	rec = getVersions(h, "/api/v1/versions?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, lister.got)
	var out []ingestion.Version
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "0badc0de", out[0].Version)

	assert.Equal(t, http.StatusBadRequest, getVersions(h, "/api/v1/versions?limit=0").Code)

	lister.err = errors.New("connection reset")
	rec = getVersions(h, "/api/v1/versions")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
