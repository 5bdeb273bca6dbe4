package monitoring

import (
	"context"
	"fmt"
	"time"

	"playcore/internal/core/domain"
	"playcore/internal/core/ports"
	"playcore/pkg/pubsub"

	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// GopsutilMemoryReader reads system memory via gopsutil.
type GopsutilMemoryReader struct{}

func (GopsutilMemoryReader) ReadMemory() (available, used uint64, err error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Available, vm.Used, nil
}

// MemoryMonitor polls a memory reader and classifies pressure against two
// usage-ratio thresholds. Every sample is published, not only changes;
// downstream consumers that care about transitions deduplicate themselves.
type MemoryMonitor struct {
	reader        ports.MemoryReader
	pollInterval  time.Duration
	warningRatio  float64
	criticalRatio float64

	state  *pubsub.Value[domain.MemoryState]
	logger *zap.SugaredLogger
}

// NewMemoryMonitor validates thresholds at construction: both must be in
// (0,1) with warning strictly below critical.
func NewMemoryMonitor(reader ports.MemoryReader, pollInterval time.Duration, warningRatio, criticalRatio float64, logger *zap.SugaredLogger) (*MemoryMonitor, error) {
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be > 0")
	}
	if warningRatio <= 0 || warningRatio >= 1 || criticalRatio <= 0 || criticalRatio >= 1 {
		return nil, fmt.Errorf("pressure thresholds must be within (0,1)")
	}
	if warningRatio >= criticalRatio {
		return nil, fmt.Errorf("warning ratio %v must be < critical ratio %v", warningRatio, criticalRatio)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MemoryMonitor{
		reader:        reader,
		pollInterval:  pollInterval,
		warningRatio:  warningRatio,
		criticalRatio: criticalRatio,
		state:         pubsub.NewValue(domain.MemoryState{Pressure: domain.PressureNormal}),
		logger:        logger,
	}, nil
}

// State exposes the latest-value memory state stream.
func (m *MemoryMonitor) State() *pubsub.Value[domain.MemoryState] {
	return m.state
}

// Start polls until the context is cancelled. One sample is taken
// immediately so consumers do not wait a full interval for the first
// reading.
func (m *MemoryMonitor) Start(ctx context.Context) {
	m.Sample()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sample()
		}
	}
}

// Sample reads memory once, classifies it, and publishes the snapshot.
func (m *MemoryMonitor) Sample() {
	available, used, err := m.reader.ReadMemory()
	if err != nil {
		m.logger.Warnw("memory read failed", "error", err)
		return
	}

	state := domain.MemoryState{
		AvailableBytes: available,
		UsedBytes:      used,
	}
	state.Pressure = m.classify(state.UsageRatio())
	m.state.Set(state)

	m.logger.Debugw("memory sample",
		"used_bytes", used,
		"available_bytes", available,
		"pressure", state.Pressure.String(),
	)
}

func (m *MemoryMonitor) classify(ratio float64) domain.MemoryPressure {
	switch {
	case ratio >= m.criticalRatio:
		return domain.PressureCritical
	case ratio >= m.warningRatio:
		return domain.PressureWarning
	default:
		return domain.PressureNormal
	}
}
