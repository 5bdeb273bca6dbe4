package services

import (
	"testing"

	"playcore/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConservativeBitrateStrategy_ValidatesThresholds(t *testing.T) {
	_, err := NewConservativeBitrateStrategy(1.1, 0.05)
	assert.Error(t, err)

	_, err = NewConservativeBitrateStrategy(0.7, -0.01)
	assert.Error(t, err)

	s, err := NewConservativeBitrateStrategy(0, 1)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestInitialBitrate_PerQuality(t *testing.T) {
	s := DefaultConservativeBitrateStrategy()
	levels := domain.StandardBitrateLevels()

	tests := []struct {
		quality domain.NetworkQuality
		want    int
	}{
		{domain.NetworkOffline, 500_000},
		{domain.NetworkPoor, 500_000},
		{domain.NetworkFair, 1_000_000},
		{domain.NetworkGood, 5_000_000},
		{domain.NetworkExcellent, 15_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.quality.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, s.InitialBitrate(tt.quality, levels))
		})
	}
}

func TestInitialBitrate_EmptyLadder(t *testing.T) {
	s := DefaultConservativeBitrateStrategy()
	assert.Equal(t, 0, s.InitialBitrate(domain.NetworkGood, nil))
}

func TestShouldUpgrade(t *testing.T) {
	s := DefaultConservativeBitrateStrategy()
	levels := domain.StandardBitrateLevels()

	next, ok := s.ShouldUpgrade(1_000_000, 0.8, domain.NetworkGood, levels)
	require.True(t, ok)
	assert.Equal(t, 2_500_000, next)

	// Buffer below the health threshold blocks the upgrade.
	_, ok = s.ShouldUpgrade(1_000_000, 0.4, domain.NetworkExcellent, levels)
	assert.False(t, ok)

	// Fair network is not enough, no matter how healthy the buffer.
	_, ok = s.ShouldUpgrade(1_000_000, 1.0, domain.NetworkFair, levels)
	assert.False(t, ok)

	// Already at the top rung.
	_, ok = s.ShouldUpgrade(15_000_000, 1.0, domain.NetworkExcellent, levels)
	assert.False(t, ok)
}

func TestShouldDowngrade(t *testing.T) {
	s := DefaultConservativeBitrateStrategy()
	levels := domain.StandardBitrateLevels()

	next, ok := s.ShouldDowngrade(2_500_000, 0.06, domain.NetworkGood, levels)
	require.True(t, ok)
	assert.Equal(t, 1_000_000, next)

	// Poor network triggers even with a clean rebuffer ratio.
	next, ok = s.ShouldDowngrade(2_500_000, 0, domain.NetworkPoor, levels)
	require.True(t, ok)
	assert.Equal(t, 1_000_000, next)

	// Nothing to drop to at the bottom rung.
	_, ok = s.ShouldDowngrade(500_000, 0.5, domain.NetworkPoor, levels)
	assert.False(t, ok)

	// Healthy session keeps its rung.
	_, ok = s.ShouldDowngrade(2_500_000, 0.01, domain.NetworkGood, levels)
	assert.False(t, ok)
}

func TestDecide_DowngradeWinsOverUpgrade(t *testing.T) {
	s := DefaultConservativeBitrateStrategy()
	levels := domain.StandardBitrateLevels()

	// Both conditions hold: healthy buffer on a good network, but the
	// rebuffer ratio is over the line. The downgrade must win.
	next, ok := s.Decide(2_500_000, 0.9, 0.10, domain.NetworkGood, levels)
	require.True(t, ok)
	assert.Equal(t, 1_000_000, next)
}

func TestDecide_UpgradeWhenNoDowngradeApplies(t *testing.T) {
	s := DefaultConservativeBitrateStrategy()
	levels := domain.StandardBitrateLevels()

	next, ok := s.Decide(2_500_000, 0.9, 0.01, domain.NetworkExcellent, levels)
	require.True(t, ok)
	assert.Equal(t, 5_000_000, next)
}
