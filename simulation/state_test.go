package simulation

import (
	"strings"
	"testing"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusPaused, StatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusRunning} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestParamsForIntensity(t *testing.T) {
	cases := []struct {
		intensity string
		tps       float64
		vol       float64
	}{
		{"low", 2, 0.02},
		{"medium", 5, 0.05},
		{"high", 10, 0.10},
		{"HIGH", 10, 0.10},
		{"unknown", 5, 0.05}, // falls back to medium
		{"", 5, 0.05},
	}
	for _, c := range cases {
		params := ParamsForIntensity(c.intensity)
		if params.TxPerSecond != c.tps || params.Volatility != c.vol {
			t.Errorf("intensity %q: got %+v want {%v %v}", c.intensity, params, c.tps, c.vol)
		}
	}
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState("abc12345", 60, 0.01)

	if !strings.HasPrefix(s.ID(), "sim_") {
		t.Errorf("simulation id missing prefix: %s", s.ID())
	}
	if len(s.ID()) != len("sim_")+8 {
		t.Errorf("simulation id length: got %d", len(s.ID()))
	}
	if s.Status() != StatusPending {
		t.Errorf("initial status: got %s want %s", s.Status(), StatusPending)
	}
	if s.CryptoID() != "abc12345" {
		t.Errorf("crypto id: got %s", s.CryptoID())
	}
}

func TestTerminalStatusSticky(t *testing.T) {
	s := NewState("abc12345", 60, 0.01)
	s.markStarted()
	s.markEnded(StatusCompleted)
	s.markEnded(StatusFailed)

	if got := s.Status(); got != StatusCompleted {
		t.Errorf("terminal status should be sticky: got %s", got)
	}
	snap := s.Snapshot()
	if snap.EndedAt == nil {
		t.Error("ended timestamp not set")
	}
}

func TestProgress(t *testing.T) {
	s := NewState("abc12345", 100, 0.01)
	s.recordTick(50, 0.01, 1, 10)
	if got := s.Progress(); got != 0.5 {
		t.Errorf("progress: got %v want 0.5", got)
	}

	s.recordTick(500, 0.01, 2, 10)
	if got := s.Progress(); got != 1.0 {
		t.Errorf("progress is capped at 1: got %v", got)
	}
}

func TestSnapshotCopiesHistory(t *testing.T) {
	s := NewState("abc12345", 60, 0.01)
	s.recordTick(1, 0.02, 1, 5)

	snap := s.Snapshot()
	if len(snap.PriceHistory) != 1 {
		t.Fatalf("snapshot history length: got %d want 1", len(snap.PriceHistory))
	}
	snap.PriceHistory[0].Price = 99

	if got := s.Snapshot().PriceHistory[0].Price; got != 0.02 {
		t.Errorf("snapshot must not alias internal history: got %v", got)
	}
}
