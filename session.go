package upscale

import (
	"sync"
	"time"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/hwprobe"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/membuf"
	"github.com/mranderson01901234/upscaler10x-sub004/internal/progress"
)

// SessionState is a Session's lifecycle position (spec.md §3
// "SessionState"): queued on construction, processing once Run starts,
// and finally complete or error. A Session never transitions out of a
// terminal state.
type SessionState uint8

const (
	StateQueued SessionState = iota
	StateProcessing
	StateComplete
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateProcessing:
		return "processing"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ResultTTL is the minimum duration a completed or errored Session keeps
// its result available for retrieval before a caller may discard it
// (spec.md §3 "destroyed after a TTL of at least 5 minutes
// post-completion"). This package does not enforce destruction itself —
// that belongs to the session registry named as out of scope in spec.md
// §1 — but exposes Expired so a caller-owned registry can apply it.
const ResultTTL = 5 * time.Minute

// Session is one upscale request: a decoded input image, a target scale,
// resolved options, and the state produced by a single Run call. Not
// safe for concurrent Run calls (see doc.go "Concurrency").
type Session struct {
	mu sync.Mutex

	input       []byte
	targetScale float64
	opts        options

	hw   hwprobe.Report
	pool *membuf.Pool
	rep  *progress.Reporter

	state       SessionState
	completedAt time.Time
	result      []byte
	runErr      error
}

// State returns the Session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the channel of progress Events for this Session's
// Run call. Safe to start reading before Run is called.
func (s *Session) Progress() <-chan progress.Event {
	return s.rep.Events()
}

// Expired reports whether this Session has been in a terminal state for
// longer than ResultTTL.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateComplete && s.state != StateError {
		return false
	}
	return time.Since(s.completedAt) > ResultTTL
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	if state == StateComplete || state == StateError {
		s.completedAt = time.Now()
	}
	s.mu.Unlock()
}

// Close releases the Session's buffer pool. Call once after Run
// completes and the result has been retrieved.
func (s *Session) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
