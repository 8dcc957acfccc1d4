package upscale

import (
	"testing"
	"time"
)

func TestSessionState_String(t *testing.T) {
	tests := []struct {
		s    SessionState
		want string
	}{
		{StateQueued, "queued"},
		{StateProcessing, "processing"},
		{StateComplete, "complete"},
		{StateError, "error"},
		{SessionState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("SessionState(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestSession_State_DefaultsToQueued(t *testing.T) {
	s := &Session{}
	if got := s.State(); got != StateQueued {
		t.Errorf("State() = %v, want StateQueued", got)
	}
}

func TestSession_SetState_StampsCompletedAtOnTerminalStates(t *testing.T) {
	s := &Session{}
	s.setState(StateProcessing)
	if !s.completedAt.IsZero() {
		t.Error("completedAt should stay zero while processing")
	}

	s.setState(StateComplete)
	if s.completedAt.IsZero() {
		t.Error("completedAt should be set on reaching StateComplete")
	}
}

func TestSession_Expired(t *testing.T) {
	s := &Session{}
	if s.Expired() {
		t.Error("a queued session should never be expired")
	}

	s.setState(StateComplete)
	if s.Expired() {
		t.Error("a freshly completed session should not be expired")
	}

	s.mu.Lock()
	s.completedAt = time.Now().Add(-ResultTTL - time.Second)
	s.mu.Unlock()
	if !s.Expired() {
		t.Error("a session completed more than ResultTTL ago should be expired")
	}
}

func TestSession_Close_ReleasesNilPoolSafely(t *testing.T) {
	s := &Session{}
	s.Close() // must not panic with a nil pool
}
