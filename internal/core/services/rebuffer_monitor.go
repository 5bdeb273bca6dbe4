package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RebufferEvent is one closed buffering interlude.
type RebufferEvent struct {
	Start time.Time
	End   time.Time
}

// Duration of the interlude.
func (e RebufferEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// RebufferingMonitor tracks buffering stalls for one playback session.
// Invariants: totalDuration always equals the sum of recorded event
// durations, and isBuffering is true exactly while a start is in flight.
type RebufferingMonitor struct {
	mu            sync.Mutex
	startTime     time.Time
	buffering     bool
	history       []RebufferEvent
	totalDuration time.Duration

	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewRebufferingMonitor creates a monitor. now may be nil for time.Now.
func NewRebufferingMonitor(now func() time.Time, logger *zap.SugaredLogger) *RebufferingMonitor {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RebufferingMonitor{now: now, logger: logger}
}

// BufferingStarted records the start of a stall. No-op when a stall is
// already open.
func (m *RebufferingMonitor) BufferingStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffering {
		return
	}
	m.buffering = true
	m.startTime = m.now()
	m.logger.Debugw("buffering started", "at", m.startTime)
}

// BufferingEnded closes the in-flight stall and returns the event. Returns
// (zero, false) and changes nothing when no stall is open.
func (m *RebufferingMonitor) BufferingEnded() (RebufferEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.buffering {
		return RebufferEvent{}, false
	}
	event := RebufferEvent{Start: m.startTime, End: m.now()}
	m.history = append(m.history, event)
	m.totalDuration += event.Duration()
	m.buffering = false
	m.startTime = time.Time{}
	m.logger.Debugw("buffering ended", "duration", event.Duration())
	return event, true
}

// IsBuffering reports whether a stall is currently open.
func (m *RebufferingMonitor) IsBuffering() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffering
}

// TotalBufferingDuration is the sum of all closed stall durations.
func (m *RebufferingMonitor) TotalBufferingDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalDuration
}

// EventCount returns the number of closed stalls.
func (m *RebufferingMonitor) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// EventsInLastMinute counts closed stalls that started within the last
// 60 seconds. A sliding window; reading it does not reset anything.
func (m *RebufferingMonitor) EventsInLastMinute() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-time.Minute)
	count := 0
	for _, e := range m.history {
		if e.Start.After(cutoff) {
			count++
		}
	}
	return count
}

// RebufferRatio is total stall time over total playback time. Returns 0
// when playbackDuration is not positive.
func (m *RebufferingMonitor) RebufferRatio(playbackDuration time.Duration) float64 {
	if playbackDuration <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.totalDuration) / float64(playbackDuration)
}

// Reset returns the monitor to its initial state. Used between sessions.
func (m *RebufferingMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffering = false
	m.startTime = time.Time{}
	m.history = nil
	m.totalDuration = 0
}
