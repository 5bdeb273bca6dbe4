package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"playcore/internal/core/domain"

	"go.uber.org/zap"
)

// HTTPFetcher is the platform-side preload fetcher: it pulls the video
// resource over HTTP and discards the body, warming any intermediary
// caches. It reports bytes read so the preload cache can account for them.
type HTTPFetcher struct {
	client *http.Client
	logger *zap.SugaredLogger
}

func NewHTTPFetcher(timeout time.Duration, logger *zap.SugaredLogger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch implements ports.PreloadFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, video domain.PreloadableVideo) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, video.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("build preload request for %s: %w", video.ID, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("preload %s: %w", video.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("preload %s: unexpected status %d", video.ID, resp.StatusCode)
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return n, fmt.Errorf("preload %s: read body: %w", video.ID, err)
	}
	return n, nil
}
