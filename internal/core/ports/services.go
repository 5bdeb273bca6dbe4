package ports

import (
	"context"

	"playcore/internal/core/domain"
)

// Cleaner releases resources when the cleanup coordinator asks it to.
// Implementations must tolerate concurrent calls and report bytes freed.
type Cleaner interface {
	Name() string
	Cleanup(ctx context.Context) (bytesFreed uint64, err error)
}

// PreloadFetcher performs the actual anticipatory fetch for one video and
// reports how many bytes it pulled. Implementations must honor context
// cancellation promptly.
type PreloadFetcher interface {
	Fetch(ctx context.Context, video domain.PreloadableVideo) (int64, error)
}

// MemoryReader samples system memory. Infrastructure provides the concrete
// reader; tests provide fakes.
type MemoryReader interface {
	ReadMemory() (available, used uint64, err error)
}

// PreloadStrategy decides which playlist items to fetch ahead of time.
type PreloadStrategy interface {
	VideosToPreload(currentIndex int, playlist []domain.PreloadableVideo, quality domain.NetworkQuality) []domain.PreloadableVideo
}
