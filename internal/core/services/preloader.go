package services

import (
	"context"
	"sync"

	"playcore/internal/core/domain"
	"playcore/internal/core/ports"
	"playcore/pkg/cache"
	"playcore/pkg/circuitbreaker"
	"playcore/pkg/retry"
	"playcore/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type preloadTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// VideoPreloader runs anticipatory fetches as independently cancellable
// tasks. A new preload for a video id cancels any in-flight preload for
// that id and waits for it to stop before starting (last-request-wins).
// Fetch failures are swallowed here: preloading is best-effort and must
// never surface as a playback error.
//
// Task starts are paced by a rate limiter and the fetcher sits behind a
// circuit breaker, so a struggling CDN is not hammered.
type VideoPreloader struct {
	fetcher  ports.PreloadFetcher
	limiter  *rate.Limiter
	breaker  *circuitbreaker.CircuitBreaker
	retryCfg retry.Config
	cache    *cache.PreloadCache

	mu    sync.Mutex
	tasks map[string]*preloadTask

	logger *zap.SugaredLogger
}

// NewVideoPreloader wires the preload pipeline. preloadCache may be nil
// when completed preloads should not be recorded.
func NewVideoPreloader(
	fetcher ports.PreloadFetcher,
	limiter *rate.Limiter,
	breaker *circuitbreaker.CircuitBreaker,
	retryCfg retry.Config,
	preloadCache *cache.PreloadCache,
	logger *zap.SugaredLogger,
) *VideoPreloader {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.DefaultConfig(), nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &VideoPreloader{
		fetcher:  fetcher,
		limiter:  limiter,
		breaker:  breaker,
		retryCfg: retryCfg,
		cache:    preloadCache,
		tasks:    make(map[string]*preloadTask),
		logger:   logger,
	}
}

// Preload starts a preload for the video. Any in-flight preload for the
// same id is cancelled and fully stopped before the new task begins.
// Immediate priority blocks until the task completes; every other priority
// is fire-and-forget.
func (p *VideoPreloader) Preload(ctx context.Context, video domain.PreloadableVideo, priority domain.PreloadPriority) {
	p.mu.Lock()
	// The slot must be free before the new task is installed. Waiting on
	// done releases the lock, and a concurrent Preload for the same id may
	// have installed its own task in the meantime, so re-check until the
	// slot is empty while holding the lock.
	for {
		prev, ok := p.tasks[video.ID]
		if !ok {
			break
		}
		prev.cancel()
		p.mu.Unlock()
		<-prev.done
		p.mu.Lock()
		if p.tasks[video.ID] == prev {
			delete(p.tasks, video.ID)
		}
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &preloadTask{cancel: cancel, done: make(chan struct{})}
	p.tasks[video.ID] = task
	p.mu.Unlock()

	go p.run(taskCtx, task, video, priority)

	if priority == domain.PreloadImmediate {
		<-task.done
	}
}

// CancelPreload stops the in-flight preload for the id, waiting for it to
// finish. Returns false when nothing was in flight.
func (p *VideoPreloader) CancelPreload(id string) bool {
	p.mu.Lock()
	task, ok := p.tasks[id]
	p.mu.Unlock()
	if !ok {
		return false
	}
	task.cancel()
	<-task.done
	return true
}

// CancelAllPreloads stops every in-flight preload and reports how many
// were cancelled. Safe when idle.
func (p *VideoPreloader) CancelAllPreloads() int {
	p.mu.Lock()
	pending := make([]*preloadTask, 0, len(p.tasks))
	for _, task := range p.tasks {
		task.cancel()
		pending = append(pending, task)
	}
	p.mu.Unlock()
	for _, task := range pending {
		<-task.done
	}
	return len(pending)
}

// InFlight returns the number of active preload tasks.
func (p *VideoPreloader) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

func (p *VideoPreloader) run(ctx context.Context, task *preloadTask, video domain.PreloadableVideo, priority domain.PreloadPriority) {
	defer close(task.done)
	defer func() {
		p.mu.Lock()
		if p.tasks[video.ID] == task {
			delete(p.tasks, video.ID)
		}
		p.mu.Unlock()
		task.cancel()
	}()

	ctx, span := tracing.StartSpan(ctx, "preload.fetch")
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		attribute.String("video.id", video.ID),
		attribute.String("preload.priority", priority.String()),
	)

	if err := p.limiter.Wait(ctx); err != nil {
		return // cancelled while queued
	}

	var fetched int64
	err := p.breaker.Execute(ctx, func() error {
		return retry.Do(ctx, p.retryCfg, func() error {
			n, err := p.fetcher.Fetch(ctx, video)
			if err == nil {
				fetched = n
			}
			return err
		})
	})
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warnw("preload failed",
				"video_id", video.ID,
				"priority", priority.String(),
				"error", err,
			)
			tracing.RecordError(ctx, err)
		}
		return
	}

	if p.cache != nil {
		p.cache.Store(video.ID, fetched)
	}
	p.logger.Debugw("preload complete",
		"video_id", video.ID,
		"bytes", fetched,
	)
}
