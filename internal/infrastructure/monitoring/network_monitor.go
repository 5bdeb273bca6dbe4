package monitoring

import (
	"fmt"
	"sync"
	"time"

	"playcore/internal/core/domain"
	"playcore/pkg/pubsub"

	"go.uber.org/zap"
)

// BandwidthEstimator keeps an exponentially weighted moving average of
// observed throughput. Samples come from the platform's transfer
// observer as (bytes, duration) pairs.
type BandwidthEstimator struct {
	mu        sync.Mutex
	mbps      float64
	hasSample bool
	smoothing float64
}

// NewBandwidthEstimator creates an estimator. smoothing must be in (0,1];
// higher values weigh recent samples more.
func NewBandwidthEstimator(smoothing float64) (*BandwidthEstimator, error) {
	if smoothing <= 0 || smoothing > 1 {
		return nil, fmt.Errorf("smoothing %v out of (0,1]", smoothing)
	}
	return &BandwidthEstimator{smoothing: smoothing}, nil
}

// RecordSample folds one transfer observation into the estimate. Samples
// with a non-positive duration are ignored.
func (e *BandwidthEstimator) RecordSample(bytesTransferred int64, duration time.Duration) {
	if duration <= 0 || bytesTransferred < 0 {
		return
	}
	sample := float64(bytesTransferred) * 8 / duration.Seconds() / 1e6

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasSample {
		e.mbps = sample
		e.hasSample = true
		return
	}
	e.mbps = e.smoothing*sample + (1-e.smoothing)*e.mbps
}

// EstimateMbps returns the current estimate and whether any sample has
// been recorded.
func (e *BandwidthEstimator) EstimateMbps() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mbps, e.hasSample
}

// Reset clears the estimate, e.g. after an interface change.
func (e *BandwidthEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mbps = 0
	e.hasSample = false
}

// NetworkQualityMonitor classifies the connection from the bandwidth
// estimate and the path observer's connectivity flag. Quality is
// published on change; the raw estimate stays readable on demand.
type NetworkQualityMonitor struct {
	estimator *BandwidthEstimator

	fairMbps      float64
	goodMbps      float64
	excellentMbps float64

	mu        sync.Mutex
	connected bool
	current   domain.NetworkQuality

	quality *pubsub.Value[domain.NetworkQuality]
	logger  *zap.SugaredLogger
}

// NewNetworkQualityMonitor validates that thresholds are strictly
// increasing. The monitor starts disconnected (Offline).
func NewNetworkQualityMonitor(estimator *BandwidthEstimator, fairMbps, goodMbps, excellentMbps float64, logger *zap.SugaredLogger) (*NetworkQualityMonitor, error) {
	if fairMbps <= 0 || goodMbps <= fairMbps || excellentMbps <= goodMbps {
		return nil, fmt.Errorf("quality thresholds must satisfy 0 < fair < good < excellent")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NetworkQualityMonitor{
		estimator:     estimator,
		fairMbps:      fairMbps,
		goodMbps:      goodMbps,
		excellentMbps: excellentMbps,
		current:       domain.NetworkOffline,
		quality:       pubsub.NewValue(domain.NetworkOffline),
		logger:        logger,
	}, nil
}

// Quality exposes the latest-value network quality stream.
func (m *NetworkQualityMonitor) Quality() *pubsub.Value[domain.NetworkQuality] {
	return m.quality
}

// Current returns the current classification.
func (m *NetworkQualityMonitor) Current() domain.NetworkQuality {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SetConnected records the path observer's connectivity flag and
// re-evaluates.
func (m *NetworkQualityMonitor) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
	m.Evaluate()
}

// RecordSample feeds a transfer observation through the estimator and
// re-evaluates the classification.
func (m *NetworkQualityMonitor) RecordSample(bytesTransferred int64, duration time.Duration) {
	m.estimator.RecordSample(bytesTransferred, duration)
	m.Evaluate()
}

// Evaluate reclassifies and publishes when the class changed.
func (m *NetworkQualityMonitor) Evaluate() {
	m.mu.Lock()
	next := m.classify()
	changed := next != m.current
	prev := m.current
	m.current = next
	m.mu.Unlock()

	if changed {
		m.quality.Set(next)
		m.logger.Infow("network quality changed",
			"from", prev.String(),
			"to", next.String(),
		)
	}
}

// classify maps the estimate to a quality class. Caller holds the lock.
func (m *NetworkQualityMonitor) classify() domain.NetworkQuality {
	if !m.connected {
		return domain.NetworkOffline
	}
	mbps, ok := m.estimator.EstimateMbps()
	if !ok {
		// Connected but unmeasured: assume Fair until samples arrive.
		return domain.NetworkFair
	}
	switch {
	case mbps >= m.excellentMbps:
		return domain.NetworkExcellent
	case mbps >= m.goodMbps:
		return domain.NetworkGood
	case mbps >= m.fairMbps:
		return domain.NetworkFair
	default:
		return domain.NetworkPoor
	}
}
