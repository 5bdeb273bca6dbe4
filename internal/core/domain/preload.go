package domain

import "time"

// PreloadableVideo identifies a playlist item that can be fetched ahead of
// time. EstimatedDuration is zero when unknown.
type PreloadableVideo struct {
	ID                string
	URL               string
	EstimatedDuration time.Duration
}

// PreloadPriority orders anticipatory fetches. Immediate means the caller
// waits for completion.
type PreloadPriority int

const (
	PreloadLow PreloadPriority = iota
	PreloadMedium
	PreloadHigh
	PreloadImmediate
)

func (p PreloadPriority) String() string {
	switch p {
	case PreloadLow:
		return "low"
	case PreloadMedium:
		return "medium"
	case PreloadHigh:
		return "high"
	case PreloadImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}
