// Package progress implements the Progress & Telemetry contract (spec.md
// §4.7): a finite, non-restartable sequence of Events delivered over a
// channel, with percent monotonically non-decreasing within a session and
// reaching exactly 100 on success.
package progress

import "context"

// Stage is one of the closed enumeration of session stages (spec.md
// §4.7).
type Stage uint8

const (
	StageInitializing Stage = iota
	StagePlanning
	StageExtracting
	StageProcessing
	StageCompositing
	StageEncoding
	StageComplete
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageInitializing:
		return "initializing"
	case StagePlanning:
		return "planning"
	case StageExtracting:
		return "extracting"
	case StageProcessing:
		return "processing"
	case StageCompositing:
		return "compositing"
	case StageEncoding:
		return "encoding"
	case StageComplete:
		return "complete"
	case StageError:
		return "error"
	default:
		return "unknown"
	}
}

// Stats carries structured per-stage metrics attached to an Event, e.g.
// tile counts, stage wall-clock time, or peak memory (spec.md §4.7,
// SPEC_FULL.md §C).
type Stats struct {
	TileCount     int
	StageDuration float64 // seconds
	PeakMemory    int64   // bytes
}

// Event is a single progress notification.
type Event struct {
	Stage   Stage
	Percent int
	Message string
	Stats   *Stats // nil when no structured stats apply
}

// Reporter is the producer side of the progress sequence: a single
// session holds one Reporter, emits Events through Report, and Closes it
// exactly once when the session reaches Complete or Error.
//
// Reporter enforces the monotonic-percent invariant: a call with a lower
// Percent than the last reported Event is clamped up to the last value
// rather than violating the guarantee.
type Reporter struct {
	ch       chan Event
	lastPct  int
	done     bool
}

// NewReporter creates a Reporter with the given channel buffer depth. A
// depth of 0 makes Report block until a receiver reads the channel on the
// other end (Session.Progress()).
func NewReporter(bufferDepth int) *Reporter {
	return &Reporter{ch: make(chan Event, bufferDepth)}
}

// Events returns the read-only channel of Events. Closed when the
// Reporter's producer calls Close.
func (r *Reporter) Events() <-chan Event {
	return r.ch
}

// Report sends an Event, clamping Percent up to the last reported value
// so the monotonic-non-decreasing invariant holds even if a caller passes
// a stale percent. Report returns false without sending if ctx is
// already done or the Reporter has been closed.
func (r *Reporter) Report(ctx context.Context, ev Event) bool {
	if r.done || ctx.Err() != nil {
		return false
	}
	if ev.Percent < r.lastPct {
		ev.Percent = r.lastPct
	}
	r.lastPct = ev.Percent

	select {
	case r.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close marks the Reporter done and closes its channel. Safe to call
// once; subsequent calls are no-ops.
func (r *Reporter) Close() {
	if r.done {
		return
	}
	r.done = true
	close(r.ch)
}
