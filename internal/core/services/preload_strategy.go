package services

import "playcore/internal/core/domain"

// AdjacentVideoPreloadStrategy selects the contiguous run of videos right
// after the one currently playing. How far ahead depends on network
// quality; nothing is preloaded offline.
type AdjacentVideoPreloadStrategy struct{}

func NewAdjacentVideoPreloadStrategy() *AdjacentVideoPreloadStrategy {
	return &AdjacentVideoPreloadStrategy{}
}

// VideosToPreload returns the slice starting at currentIndex+1, of length
// preloadCount(quality), clamped to the playlist end. No wraparound, no
// padding. Empty when currentIndex is out of range, the playlist is empty,
// or the network is offline.
func (s *AdjacentVideoPreloadStrategy) VideosToPreload(currentIndex int, playlist []domain.PreloadableVideo, quality domain.NetworkQuality) []domain.PreloadableVideo {
	if len(playlist) == 0 || currentIndex < 0 || currentIndex >= len(playlist) {
		return nil
	}
	count := preloadCount(quality)
	if count == 0 {
		return nil
	}

	start := currentIndex + 1
	if start >= len(playlist) {
		return nil
	}
	end := start + count
	if end > len(playlist) {
		end = len(playlist)
	}

	selected := make([]domain.PreloadableVideo, end-start)
	copy(selected, playlist[start:end])
	return selected
}

func preloadCount(quality domain.NetworkQuality) int {
	switch quality {
	case domain.NetworkPoor, domain.NetworkFair:
		return 1
	case domain.NetworkGood, domain.NetworkExcellent:
		return 2
	default:
		return 0
	}
}
