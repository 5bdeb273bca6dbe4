package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"playcore/internal/core/domain"
	"playcore/internal/core/ports"
	"playcore/internal/core/services"
	"playcore/internal/infrastructure/monitoring"
	"playcore/pkg/retry"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingFetcher struct {
	mu      sync.Mutex
	fetched []string
}

func (f *recordingFetcher) Fetch(_ context.Context, video domain.PreloadableVideo) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, video.ID)
	return 1024, nil
}

func (f *recordingFetcher) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fetched))
	copy(out, f.fetched)
	return out
}

// stallingFetcher blocks until its context is cancelled, keeping the
// preload task in flight.
type stallingFetcher struct {
	started chan struct{}
}

func (f *stallingFetcher) Fetch(ctx context.Context, _ domain.PreloadableVideo) (int64, error) {
	f.started <- struct{}{}
	<-ctx.Done()
	return 0, ctx.Err()
}

func newAdaptationRouterWith(t *testing.T, fetcher ports.PreloadFetcher) (*gin.Engine, *monitoring.NetworkQualityMonitor, *services.VideoPreloader) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t).Sugar()

	estimator, err := monitoring.NewBandwidthEstimator(0.3)
	require.NoError(t, err)
	network, err := monitoring.NewNetworkQualityMonitor(estimator, 0.5, 2.0, 8.0, log)
	require.NoError(t, err)

	preloader := services.NewVideoPreloader(fetcher, nil, nil, retry.Config{Multiplier: 1}, nil, log)

	handler := NewAdaptationHandler(
		services.DefaultConservativeBitrateStrategy(),
		services.NewAdjacentVideoPreloadStrategy(),
		preloader,
		network,
		nil,
		log,
	)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, api)
	return router, network, preloader
}

func newAdaptationRouter(t *testing.T) (*gin.Engine, *monitoring.NetworkQualityMonitor, *recordingFetcher) {
	fetcher := &recordingFetcher{}
	router, network, _ := newAdaptationRouterWith(t, fetcher)
	return router, network, fetcher
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostNetworkSample_ReclassifiesQuality(t *testing.T) {
	router, _, _ := newAdaptationRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/network/connectivity", `{"connected":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fair") // connected but unmeasured

	// 10 Mbit in one second: excellent.
	w = doJSON(t, router, http.MethodPost, "/api/v1/network/samples", `{"bytes_transferred":1250000,"duration_ms":1000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "excellent")
}

func TestPostNetworkSample_BadRequests(t *testing.T) {
	router, _, _ := newAdaptationRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing fields", `{}`},
		{"zero duration", `{"bytes_transferred":1000,"duration_ms":0}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/network/samples", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetBitrateDecision_InitialFromQuality(t *testing.T) {
	router, network, _ := newAdaptationRouter(t)
	network.SetConnected(true)
	network.RecordSample(1_250_000, time.Second) // 10 Mbps, excellent

	w := doJSON(t, router, http.MethodGet, "/api/v1/bitrate/decision", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["switch"])
	assert.Equal(t, 15_000_000.0, body["bitrate"])
}

func TestGetBitrateDecision_NoSwitchWhenStable(t *testing.T) {
	router, network, _ := newAdaptationRouter(t)
	network.SetConnected(true)
	network.RecordSample(375_000, time.Second) // 3 Mbps, good

	// Healthy buffer but Good (not Excellent and not failing): hold.
	w := doJSON(t, router, http.MethodGet,
		"/api/v1/bitrate/decision?current=2500000&buffer_health=0.5&rebuffer_ratio=0.0", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["switch"])
	_, hasBitrate := body["bitrate"]
	assert.False(t, hasBitrate)
}

func TestGetBitrateDecision_DowngradeOnRebuffering(t *testing.T) {
	router, network, _ := newAdaptationRouter(t)
	network.SetConnected(true)
	network.RecordSample(375_000, time.Second) // 3 Mbps, good

	w := doJSON(t, router, http.MethodGet,
		"/api/v1/bitrate/decision?current=2500000&buffer_health=0.9&rebuffer_ratio=0.2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["switch"])
	assert.Equal(t, 1_000_000.0, body["bitrate"])
}

func TestGetBitrateDecision_BadQuery(t *testing.T) {
	router, _, _ := newAdaptationRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/bitrate/decision?buffer_health=1.5", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/bitrate/decision?current=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostPlaylistPosition_PreloadsWindow(t *testing.T) {
	router, network, fetcher := newAdaptationRouter(t)
	network.SetConnected(true)
	network.RecordSample(1_250_000, time.Second) // excellent: window of 2

	w := doJSON(t, router, http.MethodPost, "/api/v1/playlist/position", `{
		"current_index": 1,
		"videos": [
			{"id": "v0", "url": "https://cdn/v0"},
			{"id": "v1", "url": "https://cdn/v1"},
			{"id": "v2", "url": "https://cdn/v2"},
			{"id": "v3", "url": "https://cdn/v3"},
			{"id": "v4", "url": "https://cdn/v4"}
		]
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Preloading []string `json:"preloading"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"v2", "v3"}, body.Preloading)

	assert.Eventually(t, func() bool {
		return len(fetcher.ids()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"v2", "v3"}, fetcher.ids())
}

func TestPostPlaylistPosition_OfflinePreloadsNothing(t *testing.T) {
	router, _, fetcher := newAdaptationRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/playlist/position", `{
		"current_index": 0,
		"videos": [{"id": "v0", "url": "u"}, {"id": "v1", "url": "u"}]
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"preloading":[]`)
	assert.Empty(t, fetcher.ids())
}

func TestPostPlaylistPosition_BadRequests(t *testing.T) {
	router, _, _ := newAdaptationRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing index", `{"videos":[{"id":"a","url":"u"}]}`},
		{"index out of range", `{"current_index":5,"videos":[{"id":"a","url":"u"}]}`},
		{"negative index", `{"current_index":-1,"videos":[{"id":"a","url":"u"}]}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/playlist/position", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCancelPreload_StopsInFlightTask(t *testing.T) {
	fetcher := &stallingFetcher{started: make(chan struct{}, 1)}
	router, _, preloader := newAdaptationRouterWith(t, fetcher)

	preloader.Preload(context.Background(), domain.PreloadableVideo{ID: "v1", URL: "https://cdn/v1"}, domain.PreloadHigh)
	<-fetcher.started

	w := doJSON(t, router, http.MethodDelete, "/api/v1/preloads/v1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":true`)
	assert.Equal(t, 0, preloader.InFlight())
}

func TestCancelPreloads_NothingInFlight(t *testing.T) {
	router, _, _ := newAdaptationRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/preloads/v1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/preloads", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":0`)
}
