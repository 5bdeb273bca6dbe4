package services

import (
	"fmt"
	"sync"
	"time"

	"playcore/internal/core/domain"
	"playcore/pkg/pubsub"
	"playcore/pkg/utils"

	"go.uber.org/zap"
)

// PerformanceThresholds bands metrics into no-alert / warning / critical.
type PerformanceThresholds struct {
	StartupWarning  time.Duration
	StartupCritical time.Duration

	RebufferRatioWarning  float64
	RebufferRatioCritical float64

	// Closed stall events within the last minute.
	RebufferCountWarning  int
	RebufferCountCritical int
}

// DefaultThresholds is the stock preset.
func DefaultThresholds() PerformanceThresholds {
	return PerformanceThresholds{
		StartupWarning:        2 * time.Second,
		StartupCritical:       5 * time.Second,
		RebufferRatioWarning:  0.05,
		RebufferRatioCritical: 0.15,
		RebufferCountWarning:  2,
		RebufferCountCritical: 5,
	}
}

// StrictStreamingThresholds tightens every band, for latency-sensitive
// live content.
func StrictStreamingThresholds() PerformanceThresholds {
	return PerformanceThresholds{
		StartupWarning:        1 * time.Second,
		StartupCritical:       3 * time.Second,
		RebufferRatioWarning:  0.02,
		RebufferRatioCritical: 0.08,
		RebufferCountWarning:  1,
		RebufferCountCritical: 3,
	}
}

// Validate rejects misconfigured thresholds at construction time.
func (t PerformanceThresholds) Validate() error {
	if t.StartupWarning <= 0 || t.StartupCritical <= 0 {
		return fmt.Errorf("startup thresholds must be > 0")
	}
	if t.StartupWarning > t.StartupCritical {
		return fmt.Errorf("startup warning threshold exceeds critical")
	}
	if t.RebufferRatioWarning < 0 || t.RebufferRatioWarning > 1 ||
		t.RebufferRatioCritical < 0 || t.RebufferRatioCritical > 1 {
		return fmt.Errorf("rebuffer ratio thresholds out of [0,1]")
	}
	if t.RebufferRatioWarning > t.RebufferRatioCritical {
		return fmt.Errorf("rebuffer ratio warning threshold exceeds critical")
	}
	if t.RebufferCountWarning <= 0 || t.RebufferCountCritical <= 0 {
		return fmt.Errorf("rebuffer count thresholds must be > 0")
	}
	if t.RebufferCountWarning > t.RebufferCountCritical {
		return fmt.Errorf("rebuffer count warning threshold exceeds critical")
	}
	return nil
}

const recentAlertsCap = 50

// AlertService bands metrics against thresholds and emits one alert per
// breach occurrence: while a condition persists at the same severity,
// re-evaluations stay silent; it re-arms when the metric drops back below
// the acceptable band or escalates.
type AlertService struct {
	thresholds PerformanceThresholds
	sessionID  string
	now        func() time.Time

	mu      sync.Mutex
	emitted map[domain.AlertType]domain.AlertSeverity
	recent  []domain.PerformanceAlert

	alerts *pubsub.Feed[domain.PerformanceAlert]
	logger *zap.SugaredLogger
}

// NewAlertService validates thresholds up front. now may be nil for
// time.Now.
func NewAlertService(thresholds PerformanceThresholds, sessionID string, now func() time.Time, logger *zap.SugaredLogger) (*AlertService, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid performance thresholds: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AlertService{
		thresholds: thresholds,
		sessionID:  sessionID,
		now:        now,
		emitted:    make(map[domain.AlertType]domain.AlertSeverity),
		alerts:     pubsub.NewFeed[domain.PerformanceAlert](32),
		logger:     logger,
	}, nil
}

// Alerts exposes the alert event stream.
func (s *AlertService) Alerts() *pubsub.Feed[domain.PerformanceAlert] {
	return s.alerts
}

// Recent returns up to the last 50 emitted alerts, newest last.
func (s *AlertService) Recent() []domain.PerformanceAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PerformanceAlert, len(s.recent))
	copy(out, s.recent)
	return out
}

// EvaluateStartup bands a completed startup measurement. Incomplete
// measurements never alert.
func (s *AlertService) EvaluateStartup(m domain.StartupMeasurement) *domain.PerformanceAlert {
	ttff, ok := m.TTFF()
	if !ok {
		return nil
	}
	switch {
	case ttff >= s.thresholds.StartupCritical:
		return s.emit(domain.AlertStartupLatency, domain.SeverityCritical,
			fmt.Sprintf("time to first frame %s exceeds critical threshold %s",
				utils.FormatDuration(ttff), utils.FormatDuration(s.thresholds.StartupCritical)),
			"drop the initial bitrate or warm the connection earlier")
	case ttff >= s.thresholds.StartupWarning:
		return s.emit(domain.AlertStartupLatency, domain.SeverityWarning,
			fmt.Sprintf("time to first frame %s exceeds warning threshold %s",
				utils.FormatDuration(ttff), utils.FormatDuration(s.thresholds.StartupWarning)),
			"consider a lower initial bitrate")
	default:
		s.rearm(domain.AlertStartupLatency)
		return nil
	}
}

// EvaluateRebuffering bands the rebuffer ratio together with the stall
// count over the last minute; the worse of the two wins.
func (s *AlertService) EvaluateRebuffering(ratio float64, eventsLastMinute int) *domain.PerformanceAlert {
	severity, breached := domain.SeverityInfo, false
	switch {
	case ratio >= s.thresholds.RebufferRatioCritical || eventsLastMinute >= s.thresholds.RebufferCountCritical:
		severity, breached = domain.SeverityCritical, true
	case ratio >= s.thresholds.RebufferRatioWarning || eventsLastMinute >= s.thresholds.RebufferCountWarning:
		severity, breached = domain.SeverityWarning, true
	}
	if !breached {
		s.rearm(domain.AlertRebuffering)
		return nil
	}
	return s.emit(domain.AlertRebuffering, severity,
		fmt.Sprintf("rebuffer ratio %.3f with %d stalls in the last minute", ratio, eventsLastMinute),
		"downgrade bitrate until stalls subside")
}

// EvaluateMemoryPressure alerts on Warning and Critical pressure.
func (s *AlertService) EvaluateMemoryPressure(pressure domain.MemoryPressure) *domain.PerformanceAlert {
	switch pressure {
	case domain.PressureCritical:
		return s.emit(domain.AlertMemoryPressure, domain.SeverityCritical,
			"memory pressure critical", "run full cleanup and shrink buffers")
	case domain.PressureWarning:
		return s.emit(domain.AlertMemoryPressure, domain.SeverityWarning,
			"memory pressure elevated", "release non-essential caches")
	default:
		s.rearm(domain.AlertMemoryPressure)
		return nil
	}
}

// EvaluateQualityChange alerts when the network quality drops by two or
// more classes, or lands at Poor or worse.
func (s *AlertService) EvaluateQualityChange(from, to domain.NetworkQuality) *domain.PerformanceAlert {
	if to >= from {
		s.rearm(domain.AlertQualityDrop)
		return nil
	}
	severity := domain.SeverityInfo
	if to <= domain.NetworkPoor || from-to >= 2 {
		severity = domain.SeverityWarning
	}
	return s.emit(domain.AlertQualityDrop, severity,
		fmt.Sprintf("network quality dropped from %s to %s", from, to),
		"expect a bitrate downgrade")
}

// emit publishes a single alert per (type, severity) occurrence.
func (s *AlertService) emit(alertType domain.AlertType, severity domain.AlertSeverity, message, suggestion string) *domain.PerformanceAlert {
	s.mu.Lock()
	if prev, ok := s.emitted[alertType]; ok && prev == severity {
		s.mu.Unlock()
		return nil
	}
	s.emitted[alertType] = severity

	alert := domain.PerformanceAlert{
		ID:         utils.GenerateAlertID(),
		SessionID:  s.sessionID,
		Type:       alertType,
		Severity:   severity,
		Timestamp:  s.now(),
		Message:    message,
		Suggestion: suggestion,
	}
	s.recent = append(s.recent, alert)
	if len(s.recent) > recentAlertsCap {
		s.recent = s.recent[len(s.recent)-recentAlertsCap:]
	}
	s.mu.Unlock()

	s.alerts.Publish(alert)
	s.logger.Warnw("performance alert",
		"type", string(alertType),
		"severity", severity.String(),
		"message", message,
	)
	return &alert
}

func (s *AlertService) rearm(alertType domain.AlertType) {
	s.mu.Lock()
	delete(s.emitted, alertType)
	s.mu.Unlock()
}
