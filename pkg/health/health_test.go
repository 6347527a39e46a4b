package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("refused") }

func ready(t *testing.T, c *Checker) (int, Report) {
	t.Helper()
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	return rec.Code, report
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		code   int
		status Status
	}{
		{"all up", map[string]Check{"index": Ping(up, false), "redis": Ping(up, true)}, http.StatusOK, StatusUp},
		{"optional down", map[string]Check{"index": Ping(up, false), "redis": Ping(down, true)}, http.StatusOK, StatusDegraded},
		{"required down", map[string]Check{"index": Ping(down, false), "redis": Ping(down, true)}, http.StatusServiceUnavailable, StatusDown},
		{"no checks", nil, http.StatusOK, StatusUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, check := range tt.checks {
				c.Register(name, check)
			}
			code, report := ready(t, c)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, report.Status)
			assert.Len(t, report.Components, len(tt.checks))
		})
	}
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
