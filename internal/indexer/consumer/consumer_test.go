package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

type scriptedLoader struct {
	errs  []error
	calls int
	paths []string
}

func (l *scriptedLoader) LoadFile(_ context.Context, path, trigger string) (*index.Snapshot, error) {
	l.calls++
	l.paths = append(l.paths, path)
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return index.Build("v1", indextest.Scenario()), nil
}

func event(t *testing.T, path string) []byte {
	t.Helper()
	data, err := json.Marshal(ingestion.IndexPublishedEvent{Version: "v1", Path: path})
	require.NoError(t, err)
	return data
}

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}

func TestHandleMessageLoadsAnnouncedPath(t *testing.T) {
	l := &scriptedLoader{}
	err := HandleMessage(l, fastRetry)(context.Background(), []byte("v1"), event(t, "/data/idx_1.sidx"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/idx_1.sidx"}, l.paths)
}

func TestHandleMessageRetriesMissingFile(t *testing.T) {
	missing := fmt.Errorf("reading index file: %w", fs.ErrNotExist)
	l := &scriptedLoader{errs: []error{missing, missing}}
	err := HandleMessage(l, fastRetry)(context.Background(), nil, event(t, "/data/idx_2.sidx"))
	require.NoError(t, err)
	assert.Equal(t, 3, l.calls)
}

func TestHandleMessageSkipsCorruptBlob(t *testing.T) {
	l := &scriptedLoader{errs: []error{fmt.Errorf("loading: %w", apperrors.ErrCorruptIndex)}}
	err := HandleMessage(l, fastRetry)(context.Background(), nil, event(t, "/data/bad.sidx"))
	assert.NoError(t, err, "corrupt blobs are committed, not redelivered")
	assert.Equal(t, 1, l.calls)
}

func TestHandleMessageSkipsPoison(t *testing.T) {
	l := &scriptedLoader{}
	h := HandleMessage(l, fastRetry)
	assert.NoError(t, h(context.Background(), nil, []byte("{")))
	assert.NoError(t, h(context.Background(), nil, []byte(`{"version":"v1"}`)))
	assert.Zero(t, l.calls)
}
