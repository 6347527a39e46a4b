package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
)

type EventType string

const (
	EventSearch    EventType = "search"
	EventStale     EventType = "stale_discard"
	EventIndexLoad EventType = "index_load"
)

// SearchEvent describes one answered (or discarded) search request.
type SearchEvent struct {
	Type        EventType `json:"type"`
	Query       string    `json:"query"`
	Name        string    `json:"name,omitempty"`
	Signature   bool      `json:"signature"`
	Degraded    bool      `json:"degraded"`
	Total       int       `json:"total"`
	Returned    int       `json:"returned"`
	LatencyMs   int64     `json:"latency_ms"`
	CacheStatus string    `json:"cache_status"`
	Version     string    `json:"version"`
	Session     string    `json:"session,omitempty"`
	Seq         uint64    `json:"seq,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}

// LoadEvent describes one index load attempt.
type LoadEvent struct {
	Type       EventType `json:"type"`
	Version    string    `json:"version,omitempty"`
	Source     string    `json:"source"`
	Trigger    string    `json:"trigger"`
	Crates     int       `json:"crates"`
	Items      int       `json:"items"`
	Warnings   int       `json:"warnings"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLoadEvent converts an engine load record.
func NewLoadEvent(rec indexer.LoadRecord) LoadEvent {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	return LoadEvent{
		Type:       EventIndexLoad,
		Version:    rec.Version,
		Source:     rec.Source,
		Trigger:    rec.Trigger,
		Crates:     rec.Crates,
		Items:      rec.Items,
		Warnings:   rec.Warnings,
		DurationMs: rec.Duration.Milliseconds(),
		Error:      rec.Error,
		Timestamp:  at.UTC(),
	}
}

// Tracker receives search events. Implementations must not block.
type Tracker interface {
	TrackSearch(SearchEvent)
}

type multi []Tracker

func (m multi) TrackSearch(e SearchEvent) {
	for _, t := range m {
		t.TrackSearch(e)
	}
}

// Multi fans events out to every non-nil tracker.
func Multi(trackers ...Tracker) Tracker {
	var m multi
	for _, t := range trackers {
		if t != nil {
			m = append(m, t)
		}
	}
	return m
}
