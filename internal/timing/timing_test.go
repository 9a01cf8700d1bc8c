package timing

import (
	"testing"
	"time"
)

func TestTimerMark(t *testing.T) {
	timer := New()

	// Sleep to ensure measurable duration
	time.Sleep(10 * time.Millisecond)
	timer.Mark("phase1")

	time.Sleep(15 * time.Millisecond)
	timer.Mark("phase2")

	phases := timer.Phases()
	if len(phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(phases))
	}

	// Phase 1 should be ~10ms
	if phases[0].Name != "phase1" {
		t.Errorf("expected phase1, got %s", phases[0].Name)
	}
	if phases[0].Duration < 10*time.Millisecond {
		t.Errorf("phase1 duration too short: %v", phases[0].Duration)
	}

	// Phase 2 should be ~15ms
	if phases[1].Name != "phase2" {
		t.Errorf("expected phase2, got %s", phases[1].Name)
	}
	if phases[1].Duration < 15*time.Millisecond {
		t.Errorf("phase2 duration too short: %v", phases[1].Duration)
	}
}

func TestTimerMarkReturnsPhaseDuration(t *testing.T) {
	timer := New()

	time.Sleep(5 * time.Millisecond)
	d := timer.Mark("only")

	if d != timer.Phases()[0].Duration {
		t.Errorf("Mark returned %v, recorded %v", d, timer.Phases()[0].Duration)
	}
	if d > timer.Total() {
		t.Errorf("phase %v longer than total %v", d, timer.Total())
	}
}

func TestTimerTotal(t *testing.T) {
	timer := New()

	time.Sleep(10 * time.Millisecond)
	timer.Mark("phase1")

	total := timer.Total()
	if total < 10*time.Millisecond {
		t.Errorf("total too short: %v", total)
	}
}

func TestTimerEmpty(t *testing.T) {
	timer := New()

	// No marks - should still work
	phases := timer.Phases()
	if len(phases) != 0 {
		t.Errorf("expected 0 phases, got %d", len(phases))
	}

	// Total should still return a duration
	total := timer.Total()
	if total < 0 {
		t.Error("total should be positive")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Microsecond, "500µs"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
		{2 * time.Second, "2.00s"},
	}

	for _, tt := range tests {
		result := FormatDuration(tt.d)
		if result != tt.expected {
			t.Errorf("FormatDuration(%v) = %s, expected %s", tt.d, result, tt.expected)
		}
	}
}
