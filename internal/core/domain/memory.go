package domain

// MemoryPressure classifies system memory scarcity.
type MemoryPressure int

const (
	PressureNormal MemoryPressure = iota
	PressureWarning
	PressureCritical
)

func (p MemoryPressure) String() string {
	switch p {
	case PressureNormal:
		return "normal"
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MemoryState is an immutable snapshot of system memory at sample time.
type MemoryState struct {
	AvailableBytes uint64
	UsedBytes      uint64
	Pressure       MemoryPressure
}

// UsageRatio is used bytes over total (used + available). Zero when the
// snapshot is empty.
func (s MemoryState) UsageRatio() float64 {
	total := s.UsedBytes + s.AvailableBytes
	if total == 0 {
		return 0
	}
	return float64(s.UsedBytes) / float64(total)
}
