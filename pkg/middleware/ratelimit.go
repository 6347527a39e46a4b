package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

// SessionHeader identifies an as-you-type search session. It doubles as
// the rate-limit key when present.
const SessionHeader = "X-Search-Session"

// Allower is satisfied by the per-client search rate limiter.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests over the client's budget with 429. Health
// probes are never limited.
func RateLimit(limiter Allower, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(ClientKey(r)) {
				m.RateLimitedTotal.Inc()
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey picks the session header, then the remote host.
func ClientKey(r *http.Request) string {
	if s := r.Header.Get(SessionHeader); s != "" {
		return "session:" + s
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
