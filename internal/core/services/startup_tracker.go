package services

import (
	"sync"
	"time"

	"playcore/internal/core/domain"
)

// StartupTimeTracker measures load-start to first-frame latency with
// single-writer-wins semantics: once a timestamp is recorded it cannot be
// overwritten mid-session. Platform callbacks may arrive from any thread,
// so every access goes through the mutex.
type StartupTimeTracker struct {
	mu          sync.Mutex
	measurement domain.StartupMeasurement
}

func NewStartupTimeTracker() *StartupTimeTracker {
	return &StartupTimeTracker{}
}

// RecordLoadStart records the load start. Ignored when a load start is
// already recorded.
func (t *StartupTimeTracker) RecordLoadStart(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.measurement.LoadStart.IsZero() {
		return
	}
	t.measurement.LoadStart = at
}

// RecordFirstFrame records the first rendered frame. Ignored when there is
// no load start yet, or when a first frame is already recorded.
func (t *StartupTimeTracker) RecordFirstFrame(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.measurement.LoadStart.IsZero() || !t.measurement.FirstFrame.IsZero() {
		return
	}
	t.measurement.FirstFrame = at
}

// Measurement returns a snapshot of the current measurement.
func (t *StartupTimeTracker) Measurement() domain.StartupMeasurement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.measurement
}

// Reset clears the tracker entirely.
func (t *StartupTimeTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.measurement = domain.StartupMeasurement{}
}
