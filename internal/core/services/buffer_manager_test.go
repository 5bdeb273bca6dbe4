package services

import (
	"testing"
	"time"

	"playcore/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestBufferManager_StartsBalanced(t *testing.T) {
	m := NewAdaptiveBufferManager(zaptest.NewLogger(t).Sugar())
	assert.Equal(t, domain.BufferBalanced, m.Strategy())
	assert.Equal(t, 30*time.Second, m.Configuration().Get().PreferredForward)
}

func TestBufferManager_NetworkDrivenStrategy(t *testing.T) {
	tests := []struct {
		quality domain.NetworkQuality
		want    domain.BufferStrategy
	}{
		{domain.NetworkOffline, domain.BufferConservative},
		{domain.NetworkPoor, domain.BufferConservative},
		{domain.NetworkFair, domain.BufferBalanced},
		{domain.NetworkGood, domain.BufferAggressive},
		{domain.NetworkExcellent, domain.BufferAggressive},
	}

	for _, tt := range tests {
		t.Run(tt.quality.String(), func(t *testing.T) {
			m := NewAdaptiveBufferManager(zaptest.NewLogger(t).Sugar())
			m.UpdateNetworkQuality(tt.quality)
			assert.Equal(t, tt.want, m.Strategy())
		})
	}
}

func TestBufferManager_MemoryPressureOverridesNetwork(t *testing.T) {
	m := NewAdaptiveBufferManager(zaptest.NewLogger(t).Sugar())
	m.UpdateNetworkQuality(domain.NetworkExcellent)

	m.UpdateMemoryState(domain.MemoryState{Pressure: domain.PressureWarning})
	assert.Equal(t, domain.BufferConservative, m.Strategy())

	m.UpdateMemoryState(domain.MemoryState{Pressure: domain.PressureCritical})
	assert.Equal(t, domain.BufferMinimal, m.Strategy())

	// Pressure relief hands control back to the network signal.
	m.UpdateMemoryState(domain.MemoryState{Pressure: domain.PressureNormal})
	assert.Equal(t, domain.BufferAggressive, m.Strategy())
}

func TestBufferManager_RepublishesOnEveryUpdate(t *testing.T) {
	m := NewAdaptiveBufferManager(zaptest.NewLogger(t).Sugar())

	configs, cancel := m.Configuration().Subscribe()
	defer cancel()
	<-configs // replayed current value

	m.UpdateNetworkQuality(domain.NetworkFair) // same strategy as initial
	cfg := <-configs
	assert.Equal(t, domain.BufferConfigurationFor(domain.BufferBalanced), cfg)
}
