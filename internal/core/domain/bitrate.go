package domain

import "sort"

// BitrateLevel is one rung of the quality ladder, totally ordered by
// bitrate in bits per second.
type BitrateLevel struct {
	Bitrate int
	Label   string
}

// StandardBitrateLevels returns the default ladder.
func StandardBitrateLevels() []BitrateLevel {
	return []BitrateLevel{
		{Bitrate: 500_000, Label: "360p"},
		{Bitrate: 1_000_000, Label: "480p"},
		{Bitrate: 2_500_000, Label: "720p"},
		{Bitrate: 5_000_000, Label: "1080p"},
		{Bitrate: 15_000_000, Label: "4k"},
	}
}

// SortBitrateLevels returns a copy sorted ascending by bitrate.
func SortBitrateLevels(levels []BitrateLevel) []BitrateLevel {
	sorted := make([]BitrateLevel, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Bitrate < sorted[j].Bitrate
	})
	return sorted
}
