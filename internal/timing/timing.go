// Package timing provides simple phase timing for launch measurement.
package timing

import (
	"fmt"
	"time"
)

// Timer tracks durations of named phases.
type Timer struct {
	start  time.Time
	last   time.Time
	phases []Phase
}

// Phase represents a timed phase with name and duration.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New creates a new Timer starting from now.
func New() *Timer {
	now := time.Now()
	return &Timer{start: now, last: now}
}

// Mark records a named phase ending now and returns its duration.
// Duration is time since the previous mark (or since start if first mark).
func (t *Timer) Mark(name string) time.Duration {
	now := time.Now()
	d := now.Sub(t.last)
	t.last = now
	t.phases = append(t.phases, Phase{Name: name, Duration: d})
	return d
}

// Total returns the total elapsed time since timer creation.
func (t *Timer) Total() time.Duration {
	return time.Since(t.start)
}

// Phases returns all recorded phases.
func (t *Timer) Phases() []Phase {
	return t.phases
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
