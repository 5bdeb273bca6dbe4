package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"playcore/internal/core/domain"
	"playcore/internal/core/ports"
	"playcore/internal/core/services"
	"playcore/internal/infrastructure/monitoring"
	apperrors "playcore/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdaptationHandler is the platform-adapter side of the API: transfer and
// connectivity telemetry flows in, bitrate decisions and preload control
// flow out. Bitrate decisions are evaluated on demand, never pushed.
type AdaptationHandler struct {
	bitrate   *services.ConservativeBitrateStrategy
	strategy  ports.PreloadStrategy
	preloader *services.VideoPreloader
	network   *monitoring.NetworkQualityMonitor
	collector *monitoring.PrometheusCollector
	logger    *zap.SugaredLogger
}

// NewAdaptationHandler wires the adapter surface. collector may be nil
// when metrics are disabled.
func NewAdaptationHandler(
	bitrate *services.ConservativeBitrateStrategy,
	strategy ports.PreloadStrategy,
	preloader *services.VideoPreloader,
	network *monitoring.NetworkQualityMonitor,
	collector *monitoring.PrometheusCollector,
	logger *zap.SugaredLogger,
) *AdaptationHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AdaptationHandler{
		bitrate:   bitrate,
		strategy:  strategy,
		preloader: preloader,
		network:   network,
		collector: collector,
		logger:    logger,
	}
}

// RegisterRoutes mounts the read-only routes on public and the mutating
// ones on protected.
func (h *AdaptationHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/bitrate/decision", h.GetBitrateDecision)
	public.GET("/network/quality", h.GetNetworkQuality)
	protected.POST("/network/samples", h.PostNetworkSample)
	protected.POST("/network/connectivity", h.PostConnectivity)
	protected.POST("/playlist/position", h.PostPlaylistPosition)
	protected.DELETE("/preloads/:id", h.CancelPreload)
	protected.DELETE("/preloads", h.CancelAllPreloads)
}

type networkSampleRequest struct {
	BytesTransferred int64   `json:"bytes_transferred"`
	DurationMs       float64 `json:"duration_ms"`
}

// PostNetworkSample folds a transfer observation into the bandwidth
// estimate.
func (h *AdaptationHandler) PostNetworkSample(c *gin.Context) {
	var req networkSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewInvalidInputError("invalid network sample body")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}
	if req.BytesTransferred < 0 || req.DurationMs <= 0 {
		appErr := apperrors.NewInvalidInputError("sample requires bytes_transferred >= 0 and duration_ms > 0")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	h.network.RecordSample(req.BytesTransferred, time.Duration(req.DurationMs*float64(time.Millisecond)))
	c.JSON(http.StatusOK, gin.H{"quality": h.network.Current().String()})
}

type connectivityRequest struct {
	Connected *bool `json:"connected" binding:"required"`
}

// PostConnectivity records the path observer's connectivity flag.
func (h *AdaptationHandler) PostConnectivity(c *gin.Context) {
	var req connectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Connected == nil {
		appErr := apperrors.NewInvalidInputError("invalid connectivity body")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	h.network.SetConnected(*req.Connected)
	c.JSON(http.StatusOK, gin.H{"quality": h.network.Current().String()})
}

// GetNetworkQuality returns the current classification.
func (h *AdaptationHandler) GetNetworkQuality(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quality": h.network.Current().String()})
}

// GetBitrateDecision evaluates the strategy against the current network
// quality. A response with switch=false means "stay where you are", not an
// error.
func (h *AdaptationHandler) GetBitrateDecision(c *gin.Context) {
	current, err := strconv.Atoi(c.DefaultQuery("current", "0"))
	if err != nil || current < 0 {
		appErr := apperrors.NewInvalidInputError("current must be a non-negative integer bitrate")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}
	bufferHealth, err := strconv.ParseFloat(c.DefaultQuery("buffer_health", "0"), 64)
	if err != nil || bufferHealth < 0 || bufferHealth > 1 {
		appErr := apperrors.NewInvalidInputError("buffer_health must be within [0,1]")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}
	rebufferRatio, err := strconv.ParseFloat(c.DefaultQuery("rebuffer_ratio", "0"), 64)
	if err != nil || rebufferRatio < 0 {
		appErr := apperrors.NewInvalidInputError("rebuffer_ratio must be >= 0")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	quality := h.network.Current()
	levels := domain.StandardBitrateLevels()

	if current == 0 {
		c.JSON(http.StatusOK, gin.H{
			"bitrate": h.bitrate.InitialBitrate(quality, levels),
			"switch":  true,
			"quality": quality.String(),
		})
		return
	}

	target, ok := h.bitrate.Decide(current, bufferHealth, rebufferRatio, quality, levels)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"switch": false, "quality": quality.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bitrate": target,
		"switch":  true,
		"quality": quality.String(),
	})
}

type playlistVideo struct {
	ID                       string  `json:"id" binding:"required"`
	URL                      string  `json:"url" binding:"required"`
	EstimatedDurationSeconds float64 `json:"estimated_duration_seconds,omitempty"`
}

type playlistPositionRequest struct {
	CurrentIndex *int            `json:"current_index" binding:"required"`
	Videos       []playlistVideo `json:"videos" binding:"required"`
}

// PostPlaylistPosition reports the viewer's position in the playlist and
// kicks off anticipatory fetches for the items the strategy selects. The
// closest item preloads at high priority, the rest at medium.
func (h *AdaptationHandler) PostPlaylistPosition(c *gin.Context) {
	var req playlistPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentIndex == nil {
		appErr := apperrors.NewInvalidInputError("invalid playlist position body")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}
	if *req.CurrentIndex < 0 || *req.CurrentIndex >= len(req.Videos) {
		appErr := apperrors.NewInvalidInputError("current_index out of playlist range")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	playlist := make([]domain.PreloadableVideo, 0, len(req.Videos))
	for _, v := range req.Videos {
		playlist = append(playlist, domain.PreloadableVideo{
			ID:                v.ID,
			URL:               v.URL,
			EstimatedDuration: time.Duration(v.EstimatedDurationSeconds * float64(time.Second)),
		})
	}

	quality := h.network.Current()
	selected := h.strategy.VideosToPreload(*req.CurrentIndex, playlist, quality)

	// Preload tasks outlive the request; shutdown cancels them.
	ctx := context.WithoutCancel(c.Request.Context())
	ids := make([]string, 0, len(selected))
	for i, video := range selected {
		priority := domain.PreloadMedium
		if i == 0 {
			priority = domain.PreloadHigh
		}
		h.preloader.Preload(ctx, video, priority)
		if h.collector != nil {
			h.collector.ObservePreloadStarted()
		}
		ids = append(ids, video.ID)
	}

	h.logger.Debugw("playlist position reported",
		"current_index", *req.CurrentIndex,
		"quality", quality.String(),
		"preloading", ids,
	)
	c.JSON(http.StatusOK, gin.H{
		"quality":    quality.String(),
		"preloading": ids,
	})
}

// CancelPreload stops the in-flight preload for one video. Cancelling an
// id with nothing in flight is a 404.
func (h *AdaptationHandler) CancelPreload(c *gin.Context) {
	id := c.Param("id")
	if !h.preloader.CancelPreload(id) {
		appErr := apperrors.NewNotFoundError("preload " + id)
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}
	if h.collector != nil {
		h.collector.ObservePreloadsCancelled(1)
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "cancelled": true})
}

// CancelAllPreloads stops every in-flight preload.
func (h *AdaptationHandler) CancelAllPreloads(c *gin.Context) {
	count := h.preloader.CancelAllPreloads()
	if h.collector != nil {
		h.collector.ObservePreloadsCancelled(count)
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": count})
}
