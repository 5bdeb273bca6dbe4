package domain

// NetworkQuality is an ordered classification of the current connection.
type NetworkQuality int

const (
	NetworkOffline NetworkQuality = iota
	NetworkPoor
	NetworkFair
	NetworkGood
	NetworkExcellent
)

func (q NetworkQuality) String() string {
	switch q {
	case NetworkOffline:
		return "offline"
	case NetworkPoor:
		return "poor"
	case NetworkFair:
		return "fair"
	case NetworkGood:
		return "good"
	case NetworkExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}
