package progress

import (
	"sync"
	"testing"
	"time"
)

// fakeClock returns a clock function that can be advanced manually.
func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	current := start
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		current = current.Add(d)
		mu.Unlock()
	}
	return now, advance
}

func TestTracker_UnknownBeforeFirstItem(t *testing.T) {
	tr := NewTracker()
	tr.Begin(10)

	s := tr.State()
	if s.RemainingKnown {
		t.Error("expected remaining time to be unknown at processed=0")
	}
	if s.TimeLeft() != "--:--" {
		t.Errorf("expected --:--, got %s", s.TimeLeft())
	}
}

func TestTracker_Estimate(t *testing.T) {
	now, advance := fakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tr := newTrackerWithClock(now)
	tr.Begin(100)

	advance(30 * time.Second)
	tr.Add(25)

	s := tr.State()
	if !s.RemainingKnown {
		t.Fatal("expected remaining time to be known")
	}
	// 30s for 25 items leaves 75 items at the same pace: 90s.
	if s.Remaining != 90*time.Second {
		t.Errorf("expected 90s remaining, got %v", s.Remaining)
	}
	if s.TimeLeft() != "01:30" {
		t.Errorf("expected 01:30, got %s", s.TimeLeft())
	}
	if s.Percent() != 25 {
		t.Errorf("expected 25%%, got %d%%", s.Percent())
	}
}

func TestTracker_Monotonic(t *testing.T) {
	tr := NewTracker()
	tr.Begin(5)

	tr.Add(2)
	tr.Add(-3) // ignored
	tr.Add(0)  // ignored

	if got := tr.State().Processed; got != 2 {
		t.Errorf("expected processed=2, got %d", got)
	}

	tr.Add(1)
	if got := tr.State().Processed; got != 3 {
		t.Errorf("expected processed=3, got %d", got)
	}
}

func TestTracker_ConcurrentAdds(t *testing.T) {
	tr := NewTracker()
	tr.Begin(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := tr.State().Processed; got != 1000 {
		t.Errorf("expected processed=1000, got %d", got)
	}
}

func TestTracker_BeginResets(t *testing.T) {
	tr := NewTracker()
	tr.Begin(10)
	tr.Add(7)
	tr.Begin(20)

	s := tr.State()
	if s.Processed != 0 || s.Total != 20 {
		t.Errorf("expected fresh state 0/20, got %d/%d", s.Processed, s.Total)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{90 * time.Second, "01:30"},
		{61 * time.Minute, "61:00"},
		{-5 * time.Second, "00:00"},
	}

	for _, tc := range tests {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %s, want %s", tc.d, got, tc.want)
		}
	}
}

func TestState_PercentZeroTotal(t *testing.T) {
	if got := (State{}).Percent(); got != 0 {
		t.Errorf("expected 0%% for zero total, got %d%%", got)
	}
}
