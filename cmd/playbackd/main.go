package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playcore/internal/core/domain"
	"playcore/internal/core/services"
	httphandlers "playcore/internal/handlers/http"
	"playcore/internal/infrastructure/distributed"
	"playcore/internal/infrastructure/fetch"
	"playcore/internal/infrastructure/middleware"
	"playcore/internal/infrastructure/monitoring"
	feedsignal "playcore/internal/infrastructure/signal"
	"playcore/pkg/cache"
	"playcore/pkg/circuitbreaker"
	"playcore/pkg/config"
	"playcore/pkg/logger"
	"playcore/pkg/retry"
	"playcore/pkg/tracing"
	"playcore/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/playcore/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	sessionID := utils.GenerateSessionID()
	log := logger.ForSession(zapLogger, sessionID)

	// Initialize tracing
	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "playcore",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Core services
	machine := services.NewPlaybackStateMachine(nil, logger.ForComponent(zapLogger, "state_machine"))
	buffers := services.NewAdaptiveBufferManager(logger.ForComponent(zapLogger, "buffer_manager"))
	rebuffers := services.NewRebufferingMonitor(nil, logger.ForComponent(zapLogger, "rebuffer_monitor"))
	startup := services.NewStartupTimeTracker()
	cleanup := services.NewResourceCleanupCoordinator(logger.ForComponent(zapLogger, "cleanup"))

	thresholds := services.DefaultThresholds()
	if cfg.Alerts.Profile == "strict_streaming" {
		thresholds = services.StrictStreamingThresholds()
	}
	alerts, err := services.NewAlertService(thresholds, sessionID, nil, logger.ForComponent(zapLogger, "alerts"))
	if err != nil {
		log.Fatalw("failed to create alert service", "error", err)
	}

	bitrate, err := services.NewConservativeBitrateStrategy(cfg.Bitrate.UpgradeBufferHealth, cfg.Bitrate.DowngradeRebufferRatio)
	if err != nil {
		log.Fatalw("failed to create bitrate strategy", "error", err)
	}

	// Monitors
	memMonitor, err := monitoring.NewMemoryMonitor(
		monitoring.GopsutilMemoryReader{},
		cfg.Memory.PollInterval,
		cfg.Memory.WarningRatio,
		cfg.Memory.CriticalRatio,
		logger.ForComponent(zapLogger, "memory_monitor"),
	)
	if err != nil {
		log.Fatalw("failed to create memory monitor", "error", err)
	}

	estimator, err := monitoring.NewBandwidthEstimator(cfg.Network.Smoothing)
	if err != nil {
		log.Fatalw("failed to create bandwidth estimator", "error", err)
	}
	netMonitor, err := monitoring.NewNetworkQualityMonitor(
		estimator,
		cfg.Network.FairMbps,
		cfg.Network.GoodMbps,
		cfg.Network.ExcellentMbps,
		logger.ForComponent(zapLogger, "network_monitor"),
	)
	if err != nil {
		log.Fatalw("failed to create network quality monitor", "error", err)
	}

	// Preload pipeline
	preloadCache := cache.New(cfg.Preload.CacheTTL, nil)
	cleanup.Register(preloadCache, domain.CleanupLow)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Preload.RetryAttempts
	preloader := services.NewVideoPreloader(
		fetch.NewHTTPFetcher(30*time.Second, logger.ForComponent(zapLogger, "fetcher")),
		rate.NewLimiter(rate.Limit(cfg.Preload.StartsPerSecond), cfg.Preload.Burst),
		circuitbreaker.New(circuitbreaker.DefaultConfig(), nil),
		retryCfg,
		preloadCache,
		logger.ForComponent(zapLogger, "preloader"),
	)
	defer preloader.CancelAllPreloads()

	// Monitoring / metrics
	collector := monitoring.NewPrometheusCollector()

	// Optional analytics sink
	var bus *distributed.EventBus
	if cfg.Redis.Enabled {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bus = distributed.NewEventBus(client, sessionID, logger.ForComponent(zapLogger, "event_bus"))
		defer bus.Close()
	}

	// Websocket event feed
	feed := feedsignal.NewEventFeedServer(machine.Transitions(), alerts.Alerts(), logger.ForComponent(zapLogger, "event_feed"))
	go feed.Run(rootCtx)

	// Background monitors and subscription glue
	go memMonitor.Start(rootCtx)
	go observeMemory(rootCtx, memMonitor, buffers, cleanup, alerts, collector)
	go observeNetwork(rootCtx, netMonitor, buffers, alerts, collector)
	go observeTransitions(rootCtx, machine, rebuffers, startup, alerts, collector, bus)
	go observeAlerts(rootCtx, alerts, bus)
	go observeCleanup(rootCtx, cleanup, collector, bus)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	playbackHandler := httphandlers.NewPlaybackHandler(machine, buffers, alerts, collector, logger.ForComponent(zapLogger, "http"))
	adaptationHandler := httphandlers.NewAdaptationHandler(
		bitrate,
		services.NewAdjacentVideoPreloadStrategy(),
		preloader,
		netMonitor,
		collector,
		logger.ForComponent(zapLogger, "http"),
	)

	api := router.Group("/api/v1")
	protected := router.Group("/api/v1")
	if cfg.Auth.Enabled {
		protected.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	}
	playbackHandler.RegisterRoutes(api, protected)
	adaptationHandler.RegisterRoutes(api, protected)

	router.GET("/ws/events", func(c *gin.Context) {
		feed.HandleWebSocket(c.Writer, c.Request)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
			"state":     machine.State().String(),
		})
	})

	// Prometheus metrics on a dedicated port
	var metricsSrv *http.Server
	if cfg.Monitoring.PrometheusEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
			Handler: mux,
		}
		go func() {
			log.Infow("prometheus metrics enabled", "port", cfg.Monitoring.PrometheusPort)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting playcore control server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("error during metrics server shutdown", "error", err)
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer", "error", err)
	}

	log.Info("playcore stopped")
}

// observeMemory fans the memory sample stream out to everything that
// reacts to pressure.
func observeMemory(
	ctx context.Context,
	monitor *monitoring.MemoryMonitor,
	buffers *services.AdaptiveBufferManager,
	cleanup *services.ResourceCleanupCoordinator,
	alerts *services.AlertService,
	collector *monitoring.PrometheusCollector,
) {
	states, cancel := monitor.State().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-states:
			buffers.UpdateMemoryState(state)
			cleanup.OnMemoryState(ctx, state)
			alerts.EvaluateMemoryPressure(state.Pressure)
			collector.ObserveMemoryState(state)
		}
	}
}

// observeNetwork fans quality changes out to the buffer manager, the
// alert service, and metrics.
func observeNetwork(
	ctx context.Context,
	monitor *monitoring.NetworkQualityMonitor,
	buffers *services.AdaptiveBufferManager,
	alerts *services.AlertService,
	collector *monitoring.PrometheusCollector,
) {
	qualities, cancel := monitor.Quality().Subscribe()
	defer cancel()

	prev := domain.NetworkOffline
	for {
		select {
		case <-ctx.Done():
			return
		case quality := <-qualities:
			buffers.UpdateNetworkQuality(quality)
			alerts.EvaluateQualityChange(prev, quality)
			collector.ObserveNetworkQuality(quality)
			prev = quality
		}
	}
}

// observeTransitions derives the session metrics that live outside the
// state machine: TTFF, stall bookkeeping, and analytics export.
func observeTransitions(
	ctx context.Context,
	machine *services.PlaybackStateMachine,
	rebuffers *services.RebufferingMonitor,
	startup *services.StartupTimeTracker,
	alerts *services.AlertService,
	collector *monitoring.PrometheusCollector,
	bus *distributed.EventBus,
) {
	transitions, cancel := machine.Transitions().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-transitions:
			collector.ObserveTransition(t)
			if bus != nil {
				bus.PublishTransition(t)
			}

			switch t.To.(type) {
			case domain.Loading:
				startup.Reset()
				startup.RecordLoadStart(t.Timestamp)
			case domain.Playing:
				wasComplete := startup.Measurement().IsComplete()
				startup.RecordFirstFrame(t.Timestamp)
				if ttff, ok := startup.Measurement().TTFF(); ok && !wasComplete {
					collector.ObserveTTFF(ttff)
					alerts.EvaluateStartup(startup.Measurement())
				}
			case domain.Idle:
				rebuffers.Reset()
				startup.Reset()
			}

			_, fromBuffering := t.From.(domain.Buffering)
			_, toBuffering := t.To.(domain.Buffering)
			switch {
			case toBuffering && !fromBuffering:
				rebuffers.BufferingStarted()
			case fromBuffering && !toBuffering:
				if event, ok := rebuffers.BufferingEnded(); ok {
					collector.ObserveRebuffer(event.Duration())
					if m := startup.Measurement(); !m.FirstFrame.IsZero() {
						ratio := rebuffers.RebufferRatio(t.Timestamp.Sub(m.FirstFrame))
						alerts.EvaluateRebuffering(ratio, rebuffers.EventsInLastMinute())
					}
				}
			}
		}
	}
}

// observeAlerts forwards emitted alerts to the analytics sink.
func observeAlerts(ctx context.Context, alerts *services.AlertService, bus *distributed.EventBus) {
	if bus == nil {
		return
	}
	feed, cancel := alerts.Alerts().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-feed:
			bus.PublishAlert(ctx, alert)
		}
	}
}

// observeCleanup records cleanup pass outcomes.
func observeCleanup(ctx context.Context, cleanup *services.ResourceCleanupCoordinator, collector *monitoring.PrometheusCollector, bus *distributed.EventBus) {
	results, cancel := cleanup.Results().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-results:
			collector.ObserveCleanupBatch(batch)
			if bus != nil {
				bus.PublishCleanupBatch(ctx, batch)
			}
		}
	}
}
