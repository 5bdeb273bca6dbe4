package services

import (
	"fmt"

	"playcore/internal/core/domain"
)

// ConservativeBitrateStrategy selects quality levels cautiously: upgrades
// need a healthy buffer on a good network, downgrades fire as soon as
// rebuffering or a poor network shows up.
type ConservativeBitrateStrategy struct {
	upgradeBufferHealth    float64
	downgradeRebufferRatio float64
}

const (
	defaultUpgradeBufferHealth    = 0.7
	defaultDowngradeRebufferRatio = 0.05
)

// NewConservativeBitrateStrategy validates thresholds at construction.
// Both must be within [0, 1].
func NewConservativeBitrateStrategy(upgradeBufferHealth, downgradeRebufferRatio float64) (*ConservativeBitrateStrategy, error) {
	if upgradeBufferHealth < 0 || upgradeBufferHealth > 1 {
		return nil, fmt.Errorf("upgrade buffer health threshold %v out of [0,1]", upgradeBufferHealth)
	}
	if downgradeRebufferRatio < 0 || downgradeRebufferRatio > 1 {
		return nil, fmt.Errorf("downgrade rebuffer ratio threshold %v out of [0,1]", downgradeRebufferRatio)
	}
	return &ConservativeBitrateStrategy{
		upgradeBufferHealth:    upgradeBufferHealth,
		downgradeRebufferRatio: downgradeRebufferRatio,
	}, nil
}

// DefaultConservativeBitrateStrategy returns the strategy with the stock
// 0.7 / 0.05 thresholds.
func DefaultConservativeBitrateStrategy() *ConservativeBitrateStrategy {
	s, _ := NewConservativeBitrateStrategy(defaultUpgradeBufferHealth, defaultDowngradeRebufferRatio)
	return s
}

// InitialBitrate picks the starting rung for a fresh session.
func (s *ConservativeBitrateStrategy) InitialBitrate(quality domain.NetworkQuality, levels []domain.BitrateLevel) int {
	if len(levels) == 0 {
		return 0
	}
	sorted := domain.SortBitrateLevels(levels)

	var idx int
	switch quality {
	case domain.NetworkOffline, domain.NetworkPoor:
		idx = 0
	case domain.NetworkFair:
		idx = len(sorted) / 3
	case domain.NetworkGood:
		idx = len(sorted) * 2 / 3
	default:
		idx = len(sorted) - 1
	}
	return sorted[idx].Bitrate
}

// ShouldUpgrade returns the next-higher bitrate when the network is at
// least Good and buffer health clears the threshold. Returns (0, false)
// when no upgrade applies.
func (s *ConservativeBitrateStrategy) ShouldUpgrade(current int, bufferHealth float64, quality domain.NetworkQuality, levels []domain.BitrateLevel) (int, bool) {
	if quality < domain.NetworkGood || bufferHealth < s.upgradeBufferHealth {
		return 0, false
	}
	sorted := domain.SortBitrateLevels(levels)
	for _, level := range sorted {
		if level.Bitrate > current {
			return level.Bitrate, true
		}
	}
	return 0, false
}

// ShouldDowngrade returns the next-lower bitrate when the rebuffer ratio
// crosses the threshold or the network has dropped to Poor or worse.
// Returns (0, false) when already at the lowest rung or neither trigger
// fires.
func (s *ConservativeBitrateStrategy) ShouldDowngrade(current int, rebufferRatio float64, quality domain.NetworkQuality, levels []domain.BitrateLevel) (int, bool) {
	if rebufferRatio < s.downgradeRebufferRatio && quality > domain.NetworkPoor {
		return 0, false
	}
	sorted := domain.SortBitrateLevels(levels)
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Bitrate < current {
			return sorted[i].Bitrate, true
		}
	}
	return 0, false
}

// Decide evaluates both directions and returns at most one decision.
// Downgrade takes precedence: it protects against stalls, and acting on
// both at once would be contradictory.
func (s *ConservativeBitrateStrategy) Decide(current int, bufferHealth, rebufferRatio float64, quality domain.NetworkQuality, levels []domain.BitrateLevel) (int, bool) {
	if next, ok := s.ShouldDowngrade(current, rebufferRatio, quality, levels); ok {
		return next, true
	}
	return s.ShouldUpgrade(current, bufferHealth, quality, levels)
}
