package monitoring

import (
	"testing"
	"time"

	"playcore/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBandwidthEstimator_ValidatesSmoothing(t *testing.T) {
	_, err := NewBandwidthEstimator(0)
	assert.Error(t, err)
	_, err = NewBandwidthEstimator(1.1)
	assert.Error(t, err)

	e, err := NewBandwidthEstimator(1)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestBandwidthEstimator_FirstSampleSeedsEstimate(t *testing.T) {
	e, err := NewBandwidthEstimator(0.3)
	require.NoError(t, err)

	_, ok := e.EstimateMbps()
	assert.False(t, ok)

	// 1.25 MB over one second = 10 Mbps.
	e.RecordSample(1_250_000, time.Second)
	mbps, ok := e.EstimateMbps()
	require.True(t, ok)
	assert.InDelta(t, 10.0, mbps, 1e-9)
}

func TestBandwidthEstimator_EWMASmoothing(t *testing.T) {
	e, err := NewBandwidthEstimator(0.3)
	require.NoError(t, err)

	e.RecordSample(1_250_000, time.Second) // 10 Mbps
	e.RecordSample(250_000, time.Second)   // 2 Mbps sample

	mbps, ok := e.EstimateMbps()
	require.True(t, ok)
	// 0.3*2 + 0.7*10
	assert.InDelta(t, 7.6, mbps, 1e-9)
}

func TestBandwidthEstimator_IgnoresDegenerateSamples(t *testing.T) {
	e, err := NewBandwidthEstimator(0.5)
	require.NoError(t, err)

	e.RecordSample(1000, 0)
	e.RecordSample(-1, time.Second)
	_, ok := e.EstimateMbps()
	assert.False(t, ok)
}

func TestBandwidthEstimator_Reset(t *testing.T) {
	e, err := NewBandwidthEstimator(0.5)
	require.NoError(t, err)

	e.RecordSample(1_250_000, time.Second)
	e.Reset()
	_, ok := e.EstimateMbps()
	assert.False(t, ok)
}

func newTestQualityMonitor(t *testing.T) *NetworkQualityMonitor {
	e, err := NewBandwidthEstimator(1) // no smoothing: last sample wins
	require.NoError(t, err)
	m, err := NewNetworkQualityMonitor(e, 0.5, 2, 8, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return m
}

func TestNewNetworkQualityMonitor_ValidatesThresholds(t *testing.T) {
	e, err := NewBandwidthEstimator(0.3)
	require.NoError(t, err)
	log := zaptest.NewLogger(t).Sugar()

	_, err = NewNetworkQualityMonitor(e, 0, 2, 8, log)
	assert.Error(t, err)
	_, err = NewNetworkQualityMonitor(e, 2, 2, 8, log)
	assert.Error(t, err)
	_, err = NewNetworkQualityMonitor(e, 0.5, 2, 2, log)
	assert.Error(t, err)
}

func TestQualityMonitor_StartsOffline(t *testing.T) {
	m := newTestQualityMonitor(t)
	assert.Equal(t, domain.NetworkOffline, m.Current())
}

func TestQualityMonitor_ConnectedButUnmeasuredIsFair(t *testing.T) {
	m := newTestQualityMonitor(t)
	m.SetConnected(true)
	assert.Equal(t, domain.NetworkFair, m.Current())
}

func TestQualityMonitor_ClassifiesFromEstimate(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  domain.NetworkQuality
	}{
		{"poor", 25_000, domain.NetworkPoor},              // 0.2 Mbps
		{"fair", 125_000, domain.NetworkFair},             // 1 Mbps
		{"good", 500_000, domain.NetworkGood},             // 4 Mbps
		{"excellent", 2_500_000, domain.NetworkExcellent}, // 20 Mbps
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestQualityMonitor(t)
			m.SetConnected(true)
			m.RecordSample(tt.bytes, time.Second)
			assert.Equal(t, tt.want, m.Current())
		})
	}
}

func TestQualityMonitor_DisconnectOverridesEstimate(t *testing.T) {
	m := newTestQualityMonitor(t)
	m.SetConnected(true)
	m.RecordSample(2_500_000, time.Second)
	require.Equal(t, domain.NetworkExcellent, m.Current())

	m.SetConnected(false)
	assert.Equal(t, domain.NetworkOffline, m.Current())
}

func TestQualityMonitor_PublishesOnlyOnChange(t *testing.T) {
	m := newTestQualityMonitor(t)
	qualities, cancel := m.Quality().Subscribe()
	defer cancel()
	assert.Equal(t, domain.NetworkOffline, <-qualities) // replayed current

	m.SetConnected(true)
	assert.Equal(t, domain.NetworkFair, <-qualities)

	// Re-evaluating without a class change publishes nothing.
	m.Evaluate()
	m.RecordSample(125_000, time.Second) // still Fair
	select {
	case q := <-qualities:
		t.Fatalf("unexpected publication %v", q)
	default:
	}

	m.RecordSample(2_500_000, time.Second)
	assert.Equal(t, domain.NetworkExcellent, <-qualities)
}
