package batch

import (
	"sync"
	"time"

	"filmstrip/internal/processor"
)

// Stats aggregates per-item outcomes for one batch run. All methods are
// safe for concurrent use by the worker pool.
type Stats struct {
	mu sync.Mutex

	succeeded int
	failed    int
	timedOut  int
	itemTime  time.Duration

	started  time.Time
	wallTime time.Duration
}

// NewStats starts a fresh aggregation clock.
func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Record folds one pipeline outcome into the counters.
func (s *Stats) Record(out processor.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out.Success {
		s.succeeded++
	} else {
		s.failed++
	}
	s.itemTime += out.Elapsed
}

// RecordTimeout counts an item abandoned at its deadline.
func (s *Stats) RecordTimeout(itemID string, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timedOut++
	s.itemTime += timeout
}

// Finish stops the wall clock. Further records still count but no
// longer extend the reported wall time.
func (s *Stats) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallTime = time.Since(s.started)
}

// Total reports how many items have been recorded so far.
func (s *Stats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.succeeded + s.failed + s.timedOut
}

// Summary is an immutable snapshot of one batch's counters.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	TimedOut  int
	// ItemTime is the summed per-item processing time.
	ItemTime time.Duration
	// WallTime is the elapsed run time of the whole batch.
	WallTime time.Duration
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	wall := s.wallTime
	if wall == 0 {
		wall = time.Since(s.started)
	}
	return Summary{
		Total:     s.succeeded + s.failed + s.timedOut,
		Succeeded: s.succeeded,
		Failed:    s.failed + s.timedOut,
		TimedOut:  s.timedOut,
		ItemTime:  s.itemTime,
		WallTime:  wall,
	}
}

// AveragePerItem reports the mean processing time across recorded
// items, zero when nothing ran.
func (s Summary) AveragePerItem() time.Duration {
	if s.Total == 0 {
		return 0
	}
	return s.ItemTime / time.Duration(s.Total)
}
