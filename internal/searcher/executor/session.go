package executor

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Session orders the queries of one as-you-type input. Every keystroke
// gets a sequence number; a result is delivered only if its number is
// still the latest one seen, otherwise it is stale and dropped.
type Session struct {
	latest atomic.Uint64
}

// Next issues a new, strictly larger sequence number.
func (s *Session) Next() uint64 {
	return s.latest.Add(1)
}

// Observe records a sequence number chosen by a client. It reports false
// when a newer number has already been seen.
func (s *Session) Observe(seq uint64) bool {
	for {
		cur := s.latest.Load()
		if seq < cur {
			return false
		}
		if seq == cur || s.latest.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

// Deliver reports whether a result for seq should be shown.
func (s *Session) Deliver(seq uint64) bool {
	return seq == s.latest.Load()
}

func (s *Session) Latest() uint64 {
	return s.latest.Load()
}

// Tracker holds sessions by client-chosen ID, evicting the least recently
// used beyond its capacity.
type Tracker struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
}

func NewTracker(capacity int) (*Tracker, error) {
	if capacity <= 0 {
		capacity = 4096
	}
	c, err := lru.New[string, *Session](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	return &Tracker{sessions: c}, nil
}

// Session returns the session for id, creating it if needed.
func (t *Tracker) Session(id string) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions.Get(id); ok {
		return s
	}
	s := &Session{}
	t.sessions.Add(id, s)
	return s
}

func (t *Tracker) Len() int {
	return t.sessions.Len()
}
