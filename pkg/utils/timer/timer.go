// Package timer tracks total and per-stage durations of multi-stage CLI operations.
package timer

import (
	"sync"
	"time"
)

// Timer measures the elapsed time of an operation and of its current stage.
type Timer interface {
	// Start begins timing. Calling Start again resets the timer.
	Start()
	// NewStage marks the beginning of a new stage without resetting the total.
	NewStage()
	// GetTiming returns the total elapsed time and the time spent in the current stage.
	GetTiming() (time.Duration, time.Duration)
	// Stop freezes the timer so subsequent GetTiming calls return the same values.
	Stop()
}

// StageTimer is the default Timer implementation.
type StageTimer struct {
	mu         sync.Mutex
	now        func() time.Time
	startTime  time.Time
	stageStart time.Time
	stopTime   time.Time
	stopped    bool
}

// New creates a StageTimer using the wall clock.
func New() *StageTimer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a StageTimer with an injectable clock.
func NewWithClock(now func() time.Time) *StageTimer {
	return &StageTimer{now: now}
}

// Start begins timing.
func (t *StageTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.startTime = now
	t.stageStart = now
	t.stopped = false
}

// NewStage starts a new stage.
func (t *StageTimer) NewStage() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.startTime.IsZero() {
		t.startTime = t.now()
	}

	t.stageStart = t.now()
}

// GetTiming returns total and stage durations. A timer that was never started reports zero.
func (t *StageTimer) GetTiming() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.startTime.IsZero() {
		return 0, 0
	}

	end := t.now()
	if t.stopped {
		end = t.stopTime
	}

	return end.Sub(t.startTime), end.Sub(t.stageStart)
}

// Stop freezes the timer.
func (t *StageTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTime = t.now()
	t.stopped = true
}
