package domain

import "time"

// BufferStrategy names the four buffering postures, from most to least
// memory-frugal.
type BufferStrategy int

const (
	BufferMinimal BufferStrategy = iota
	BufferConservative
	BufferBalanced
	BufferAggressive
)

func (s BufferStrategy) String() string {
	switch s {
	case BufferMinimal:
		return "minimal"
	case BufferConservative:
		return "conservative"
	case BufferBalanced:
		return "balanced"
	case BufferAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// BufferConfiguration is what gets applied to the concrete player.
type BufferConfiguration struct {
	PreferredForward time.Duration
	MinimumForward   time.Duration
	MaxBufferBytes   int64
}

const mib = 1 << 20

// BufferConfigurationFor maps a strategy to its preset.
func BufferConfigurationFor(s BufferStrategy) BufferConfiguration {
	switch s {
	case BufferMinimal:
		return BufferConfiguration{
			PreferredForward: 5 * time.Second,
			MinimumForward:   2 * time.Second,
			MaxBufferBytes:   30 * mib,
		}
	case BufferConservative:
		return BufferConfiguration{
			PreferredForward: 15 * time.Second,
			MinimumForward:   5 * time.Second,
			MaxBufferBytes:   60 * mib,
		}
	case BufferBalanced:
		return BufferConfiguration{
			PreferredForward: 30 * time.Second,
			MinimumForward:   10 * time.Second,
			MaxBufferBytes:   150 * mib,
		}
	default:
		return BufferConfiguration{
			PreferredForward: 60 * time.Second,
			MinimumForward:   15 * time.Second,
			MaxBufferBytes:   300 * mib,
		}
	}
}
