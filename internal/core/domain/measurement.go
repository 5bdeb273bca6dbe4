package domain

import "time"

// StartupMeasurement tracks one load-to-first-frame interval. Zero
// timestamps mean "not recorded yet".
type StartupMeasurement struct {
	LoadStart  time.Time
	FirstFrame time.Time
}

// IsComplete reports whether both endpoints have been recorded.
func (m StartupMeasurement) IsComplete() bool {
	return !m.LoadStart.IsZero() && !m.FirstFrame.IsZero()
}

// TTFF returns the time-to-first-frame. Only defined when the measurement
// is complete.
func (m StartupMeasurement) TTFF() (time.Duration, bool) {
	if !m.IsComplete() {
		return 0, false
	}
	return m.FirstFrame.Sub(m.LoadStart), true
}
