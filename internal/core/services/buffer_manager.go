package services

import (
	"sync"

	"playcore/internal/core/domain"
	"playcore/pkg/pubsub"

	"go.uber.org/zap"
)

// AdaptiveBufferManager recomputes the player buffer configuration from
// the latest memory and network signals. Memory pressure always wins over
// network quality: running out of memory stalls the whole app, not just
// playback.
type AdaptiveBufferManager struct {
	mu      sync.Mutex
	memory  domain.MemoryState
	network domain.NetworkQuality

	config *pubsub.Value[domain.BufferConfiguration]
	logger *zap.SugaredLogger
}

// NewAdaptiveBufferManager starts from Normal pressure on a Fair network,
// which yields the Balanced preset.
func NewAdaptiveBufferManager(logger *zap.SugaredLogger) *AdaptiveBufferManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &AdaptiveBufferManager{
		memory:  domain.MemoryState{Pressure: domain.PressureNormal},
		network: domain.NetworkFair,
		logger:  logger,
	}
	m.config = pubsub.NewValue(domain.BufferConfigurationFor(m.determineStrategy()))
	return m
}

// Configuration exposes the latest-value buffer configuration stream.
// Consumers that only care about actual changes filter by equality
// themselves; the manager republishes on every update.
func (m *AdaptiveBufferManager) Configuration() *pubsub.Value[domain.BufferConfiguration] {
	return m.config
}

// UpdateMemoryState records a new memory sample and republishes the
// resulting configuration.
func (m *AdaptiveBufferManager) UpdateMemoryState(state domain.MemoryState) {
	m.mu.Lock()
	m.memory = state
	strategy := m.determineStrategy()
	m.mu.Unlock()
	m.publish(strategy)
}

// UpdateNetworkQuality records a new quality classification and
// republishes the resulting configuration.
func (m *AdaptiveBufferManager) UpdateNetworkQuality(quality domain.NetworkQuality) {
	m.mu.Lock()
	m.network = quality
	strategy := m.determineStrategy()
	m.mu.Unlock()
	m.publish(strategy)
}

// Strategy returns the currently selected buffering posture.
func (m *AdaptiveBufferManager) Strategy() domain.BufferStrategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.determineStrategy()
}

// determineStrategy evaluates memory pressure first; network quality is
// only consulted when memory is Normal. Caller holds the lock.
func (m *AdaptiveBufferManager) determineStrategy() domain.BufferStrategy {
	switch m.memory.Pressure {
	case domain.PressureCritical:
		return domain.BufferMinimal
	case domain.PressureWarning:
		return domain.BufferConservative
	}

	switch m.network {
	case domain.NetworkOffline, domain.NetworkPoor:
		return domain.BufferConservative
	case domain.NetworkFair:
		return domain.BufferBalanced
	default:
		return domain.BufferAggressive
	}
}

func (m *AdaptiveBufferManager) publish(strategy domain.BufferStrategy) {
	cfg := domain.BufferConfigurationFor(strategy)
	m.config.Set(cfg)
	m.logger.Debugw("buffer configuration updated",
		"strategy", strategy.String(),
		"preferred_forward", cfg.PreferredForward,
		"max_buffer_bytes", cfg.MaxBufferBytes,
	)
}
