package http

import (
	"fmt"
	"net/http"
	"time"

	"playcore/internal/core/domain"
	"playcore/internal/core/services"
	"playcore/internal/infrastructure/monitoring"
	apperrors "playcore/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PlaybackHandler is the control/diagnostics REST surface over the core.
// It is boundary plumbing: every decision stays inside the services it
// wraps.
type PlaybackHandler struct {
	machine   *services.PlaybackStateMachine
	buffers   *services.AdaptiveBufferManager
	alerts    *services.AlertService
	collector *monitoring.PrometheusCollector
	logger    *zap.SugaredLogger
}

// NewPlaybackHandler wires the control surface. collector may be nil when
// metrics are disabled.
func NewPlaybackHandler(
	machine *services.PlaybackStateMachine,
	buffers *services.AdaptiveBufferManager,
	alerts *services.AlertService,
	collector *monitoring.PrometheusCollector,
	logger *zap.SugaredLogger,
) *PlaybackHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PlaybackHandler{
		machine:   machine,
		buffers:   buffers,
		alerts:    alerts,
		collector: collector,
		logger:    logger,
	}
}

// RegisterRoutes mounts the read-only routes on public and the mutating
// ones on protected.
func (h *PlaybackHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/playback/state", h.GetState)
	public.GET("/buffer/config", h.GetBufferConfig)
	public.GET("/alerts", h.GetAlerts)
	protected.POST("/playback/actions", h.PostAction)
}

// GetState returns the current state snapshot and derived predicates.
func (h *PlaybackHandler) GetState(c *gin.Context) {
	state := h.machine.State()
	c.JSON(http.StatusOK, gin.H{
		"state":     state.String(),
		"name":      domain.StateName(state),
		"is_active": domain.IsActive(state),
		"can_play":  domain.CanPlay(state),
		"can_pause": domain.CanPause(state),
	})
}

// GetBufferConfig returns the configuration currently applied to the
// player.
func (h *PlaybackHandler) GetBufferConfig(c *gin.Context) {
	cfg := h.buffers.Configuration().Get()
	c.JSON(http.StatusOK, gin.H{
		"strategy":                  h.buffers.Strategy().String(),
		"preferred_forward_seconds": cfg.PreferredForward.Seconds(),
		"minimum_forward_seconds":   cfg.MinimumForward.Seconds(),
		"max_buffer_bytes":          cfg.MaxBufferBytes,
	})
}

// GetAlerts returns the most recent performance alerts.
func (h *PlaybackHandler) GetAlerts(c *gin.Context) {
	recent := h.alerts.Recent()
	out := make([]gin.H, 0, len(recent))
	for _, a := range recent {
		out = append(out, gin.H{
			"id":         a.ID,
			"session_id": a.SessionID,
			"type":       string(a.Type),
			"severity":   a.Severity.String(),
			"timestamp":  a.Timestamp,
			"message":    a.Message,
			"suggestion": a.Suggestion,
		})
	}
	c.JSON(http.StatusOK, gin.H{"alerts": out})
}

type actionRequest struct {
	Type          string  `json:"type" binding:"required"`
	URL           string  `json:"url,omitempty"`
	TargetSeconds float64 `json:"target_seconds,omitempty"`

	// Set for playback_failed events.
	ErrorCode string `json:"error_code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// PostAction translates a request into a playback action and sends it.
// A rejected action is a 409, not an error: the table simply has no entry
// for the current state.
func (h *PlaybackHandler) PostAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewInvalidInputError("invalid action request body")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	action, err := h.actionFrom(req)
	if err != nil {
		appErr := apperrors.NewInvalidInputError(err.Error())
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	transition := h.machine.Send(action)
	if transition == nil {
		if h.collector != nil {
			h.collector.ObserveRejectedAction(h.machine.State(), action)
		}
		appErr := apperrors.NewConflictError(
			fmt.Sprintf("action %q not allowed in state %q", action.Name(), h.machine.State().String()))
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":    transition.From.String(),
		"to":      transition.To.String(),
		"action":  transition.Action.Name(),
		"changed": transition.Changed(),
	})
}

func (h *PlaybackHandler) actionFrom(req actionRequest) (domain.PlaybackAction, error) {
	switch req.Type {
	case "load":
		if req.URL == "" {
			return nil, fmt.Errorf("load requires a url")
		}
		return domain.Load{URL: req.URL}, nil
	case "play":
		return domain.Play{}, nil
	case "pause":
		return domain.Pause{}, nil
	case "seek":
		if req.TargetSeconds < 0 {
			return nil, fmt.Errorf("seek target must be >= 0")
		}
		return domain.Seek{Target: time.Duration(req.TargetSeconds * float64(time.Second))}, nil
	case "stop":
		return domain.Stop{}, nil
	case "retry":
		return domain.Retry{}, nil

	// Player events, translated by the platform adapter.
	case "became_ready":
		return domain.BecameReady{}, nil
	case "started_playing":
		return domain.StartedPlaying{}, nil
	case "did_pause":
		return domain.DidPause{}, nil
	case "started_buffering":
		return domain.StartedBuffering{}, nil
	case "finished_buffering":
		return domain.FinishedBuffering{}, nil
	case "started_seeking":
		return domain.StartedSeeking{}, nil
	case "finished_seeking":
		return domain.FinishedSeeking{}, nil
	case "reached_end":
		return domain.ReachedEnd{}, nil
	case "playback_failed":
		return domain.PlaybackFailed{Err: playbackErrorFrom(req)}, nil

	// App/session lifecycle events.
	case "entered_background":
		return domain.EnteredBackground{}, nil
	case "became_active":
		return domain.BecameActive{}, nil
	case "session_interrupted":
		return domain.SessionInterrupted{}, nil
	case "session_resumed":
		return domain.SessionResumed{}, nil

	default:
		return nil, fmt.Errorf("unknown action type %q", req.Type)
	}
}

func playbackErrorFrom(req actionRequest) *domain.PlaybackError {
	switch req.ErrorCode {
	case "load_failed":
		return domain.NewLoadFailedError(req.Reason)
	case "network_error":
		return domain.NewNetworkError(req.Reason)
	case "decoding_error":
		return domain.NewDecodingError(req.Reason)
	case "drm_error":
		return domain.NewDRMError(req.Reason)
	default:
		return domain.NewUnknownError(req.Reason)
	}
}
