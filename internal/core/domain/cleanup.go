package domain

// CleanupPriority orders cleaners from cheapest to most disruptive.
type CleanupPriority int

const (
	CleanupLow CleanupPriority = iota
	CleanupMedium
	CleanupHigh
)

func (p CleanupPriority) String() string {
	switch p {
	case CleanupLow:
		return "low"
	case CleanupMedium:
		return "medium"
	case CleanupHigh:
		return "high"
	default:
		return "unknown"
	}
}

// CleanupResult is the per-cleaner outcome of one pass. Failures are
// recorded, never propagated; a pass always completes.
type CleanupResult struct {
	Name       string
	BytesFreed uint64
	Success    bool
	Err        error
}
