// Package progress tracks how far a run has gotten and estimates the time
// remaining from the average pace so far.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// State is a snapshot of a run's progress. Remaining is only meaningful
// when RemainingKnown is true; before the first processed item there is no
// pace to extrapolate from.
type State struct {
	Processed      int           `json:"processed"`
	Total          int           `json:"total"`
	StartedAt      time.Time     `json:"started_at"`
	Elapsed        time.Duration `json:"-"`
	Remaining      time.Duration `json:"-"`
	RemainingKnown bool          `json:"-"`
}

// Percent returns the completed percentage, 0 when the total is unknown.
func (s State) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return s.Processed * 100 / s.Total
}

// TimeLeft formats the remaining time as mm:ss, or "--:--" when unknown.
func (s State) TimeLeft() string {
	if !s.RemainingKnown {
		return "--:--"
	}
	return FormatDuration(s.Remaining)
}

// FormatDuration renders a duration as mm:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Tracker counts processed items against a total. Safe for concurrent use:
// workers call Add while readers poll State. Processed never decreases
// within a run.
type Tracker struct {
	mu        sync.Mutex
	processed int
	total     int
	startedAt time.Time
	now       func() time.Time // injectable clock for tests
}

// NewTracker creates a tracker with the wall clock.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// newTrackerWithClock creates a tracker with a custom clock for tests.
func newTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Begin resets the tracker for a new run with the given total.
func (t *Tracker) Begin(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed = 0
	t.total = total
	t.startedAt = t.now()
}

// Add records n more processed items. Negative deltas are ignored so the
// processed count is monotonic.
func (t *Tracker) Add(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	t.processed += n
	t.mu.Unlock()
}

// State returns the current snapshot with the remaining-time estimate
// elapsed * (total - processed) / processed.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := State{
		Processed: t.processed,
		Total:     t.total,
		StartedAt: t.startedAt,
	}
	if !t.startedAt.IsZero() {
		s.Elapsed = t.now().Sub(t.startedAt)
	}
	if t.processed > 0 {
		s.Remaining = time.Duration(
			float64(s.Elapsed) * float64(t.total-t.processed) / float64(t.processed),
		)
		s.RemainingKnown = true
	}
	return s
}
