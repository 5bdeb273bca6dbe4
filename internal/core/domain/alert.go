package domain

import "time"

// AlertSeverity bands a threshold breach.
type AlertSeverity int

const (
	SeverityInfo AlertSeverity = iota
	SeverityWarning
	SeverityCritical
)

func (s AlertSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// AlertType names the metric that breached.
type AlertType string

const (
	AlertStartupLatency AlertType = "startup_latency"
	AlertRebuffering    AlertType = "rebuffering"
	AlertMemoryPressure AlertType = "memory_pressure"
	AlertQualityDrop    AlertType = "quality_drop"
)

// PerformanceAlert is emitted once per threshold breach occurrence.
type PerformanceAlert struct {
	ID         string
	SessionID  string
	Type       AlertType
	Severity   AlertSeverity
	Timestamp  time.Time
	Message    string
	Suggestion string
}
