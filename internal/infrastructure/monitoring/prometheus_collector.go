package monitoring

import (
	"time"

	"playcore/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports playback core metrics.
type PrometheusCollector struct {
	transitionsTotal *prometheus.CounterVec
	rejectedActions  *prometheus.CounterVec
	currentState     *prometheus.GaugeVec

	ttffSeconds      prometheus.Histogram
	rebufferEvents   prometheus.Counter
	rebufferDuration prometheus.Histogram

	memoryPressure prometheus.Gauge
	networkQuality prometheus.Gauge

	preloadsStarted   prometheus.Counter
	preloadsCancelled prometheus.Counter
	cleanupBytesFreed prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		transitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "playcore_transitions_total",
			Help: "Accepted state machine transitions",
		}, []string{"from", "to", "action"}),

		rejectedActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "playcore_rejected_actions_total",
			Help: "Actions rejected by the transition table",
		}, []string{"state", "action"}),

		currentState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "playcore_state",
			Help: "Current playback state (1 for the active state)",
		}, []string{"state"}),

		ttffSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "playcore_ttff_seconds",
			Help:    "Time to first frame",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}),

		rebufferEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playcore_rebuffer_events_total",
			Help: "Closed buffering stalls",
		}),

		rebufferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "playcore_rebuffer_duration_seconds",
			Help:    "Duration of buffering stalls",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}),

		memoryPressure: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "playcore_memory_pressure",
			Help: "Memory pressure class (0 normal, 1 warning, 2 critical)",
		}),

		networkQuality: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "playcore_network_quality",
			Help: "Network quality class (0 offline .. 4 excellent)",
		}),

		preloadsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playcore_preloads_started_total",
			Help: "Preload tasks started",
		}),

		preloadsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playcore_preloads_cancelled_total",
			Help: "Preload tasks cancelled",
		}),

		cleanupBytesFreed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playcore_cleanup_bytes_freed_total",
			Help: "Bytes released by cleanup passes",
		}),
	}
}

// ObserveTransition records an accepted transition and moves the state
// gauge.
func (c *PrometheusCollector) ObserveTransition(t domain.Transition) {
	c.transitionsTotal.WithLabelValues(
		domain.StateName(t.From),
		domain.StateName(t.To),
		t.Action.Name(),
	).Inc()
	c.currentState.Reset()
	c.currentState.WithLabelValues(domain.StateName(t.To)).Set(1)
}

// ObserveRejectedAction records a no-op send.
func (c *PrometheusCollector) ObserveRejectedAction(state domain.PlaybackState, action domain.PlaybackAction) {
	c.rejectedActions.WithLabelValues(domain.StateName(state), action.Name()).Inc()
}

// ObserveTTFF records a completed startup measurement.
func (c *PrometheusCollector) ObserveTTFF(ttff time.Duration) {
	c.ttffSeconds.Observe(ttff.Seconds())
}

// ObserveRebuffer records a closed stall.
func (c *PrometheusCollector) ObserveRebuffer(duration time.Duration) {
	c.rebufferEvents.Inc()
	c.rebufferDuration.Observe(duration.Seconds())
}

// ObserveMemoryState records the latest memory sample.
func (c *PrometheusCollector) ObserveMemoryState(state domain.MemoryState) {
	c.memoryPressure.Set(float64(state.Pressure))
}

// ObserveNetworkQuality records the latest quality class.
func (c *PrometheusCollector) ObserveNetworkQuality(quality domain.NetworkQuality) {
	c.networkQuality.Set(float64(quality))
}

// ObservePreloadStarted counts a preload task start.
func (c *PrometheusCollector) ObservePreloadStarted() {
	c.preloadsStarted.Inc()
}

// ObservePreloadsCancelled counts cancelled preload tasks.
func (c *PrometheusCollector) ObservePreloadsCancelled(count int) {
	c.preloadsCancelled.Add(float64(count))
}

// ObserveCleanupBatch accumulates bytes freed across a pass.
func (c *PrometheusCollector) ObserveCleanupBatch(results []domain.CleanupResult) {
	var freed uint64
	for _, r := range results {
		if r.Success {
			freed += r.BytesFreed
		}
	}
	c.cleanupBytesFreed.Add(float64(freed))
}
