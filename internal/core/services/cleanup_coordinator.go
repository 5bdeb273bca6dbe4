package services

import (
	"context"
	"sync"

	"playcore/internal/core/domain"
	"playcore/internal/core/ports"
	"playcore/pkg/pubsub"
	"playcore/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type registeredCleaner struct {
	cleaner  ports.Cleaner
	priority domain.CleanupPriority
}

// ResourceCleanupCoordinator holds an ordered registry of cleaners and
// reacts to memory pressure transitions:
//
//	Critical -> every registered cleaner
//	Warning  -> cleaners with priority <= Medium
//	Normal   -> nothing
//
// Reactions are deduplicated by pressure value, so repeated samples at the
// same pressure trigger one pass. Passes are best-effort: a failing
// cleaner is recorded and the pass continues.
type ResourceCleanupCoordinator struct {
	mu           sync.Mutex
	cleaners     []registeredCleaner
	lastPressure domain.MemoryPressure
	seenPressure bool

	results *pubsub.Feed[[]domain.CleanupResult]
	logger  *zap.SugaredLogger
}

func NewResourceCleanupCoordinator(logger *zap.SugaredLogger) *ResourceCleanupCoordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ResourceCleanupCoordinator{
		results: pubsub.NewFeed[[]domain.CleanupResult](8),
		logger:  logger,
	}
}

// Register appends a cleaner to the registry. Registration order is the
// invocation order within a pass.
func (c *ResourceCleanupCoordinator) Register(cleaner ports.Cleaner, priority domain.CleanupPriority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleaners = append(c.cleaners, registeredCleaner{cleaner: cleaner, priority: priority})
}

// Results exposes the per-pass result batches.
func (c *ResourceCleanupCoordinator) Results() *pubsub.Feed[[]domain.CleanupResult] {
	return c.results
}

// OnMemoryState reacts to a memory sample. The cleanup pass runs
// asynchronously; results arrive on the Results feed.
func (c *ResourceCleanupCoordinator) OnMemoryState(ctx context.Context, state domain.MemoryState) {
	c.mu.Lock()
	if c.seenPressure && c.lastPressure == state.Pressure {
		c.mu.Unlock()
		return
	}
	c.lastPressure = state.Pressure
	c.seenPressure = true
	c.mu.Unlock()

	switch state.Pressure {
	case domain.PressureCritical:
		go c.CleanupAll(ctx)
	case domain.PressureWarning:
		go c.CleanupUpTo(ctx, domain.CleanupMedium)
	}
}

// CleanupAll invokes every registered cleaner exactly once and publishes
// the batch.
func (c *ResourceCleanupCoordinator) CleanupAll(ctx context.Context) []domain.CleanupResult {
	return c.run(ctx, domain.CleanupHigh)
}

// CleanupUpTo invokes cleaners whose priority is at most maxPriority and
// publishes the batch.
func (c *ResourceCleanupCoordinator) CleanupUpTo(ctx context.Context, maxPriority domain.CleanupPriority) []domain.CleanupResult {
	return c.run(ctx, maxPriority)
}

func (c *ResourceCleanupCoordinator) run(ctx context.Context, maxPriority domain.CleanupPriority) []domain.CleanupResult {
	ctx, span := tracing.StartSpan(ctx, "cleanup.pass")
	defer span.End()

	c.mu.Lock()
	pass := make([]registeredCleaner, 0, len(c.cleaners))
	for _, rc := range c.cleaners {
		if rc.priority <= maxPriority {
			pass = append(pass, rc)
		}
	}
	c.mu.Unlock()

	results := make([]domain.CleanupResult, 0, len(pass))
	var freed uint64
	for _, rc := range pass {
		bytesFreed, err := rc.cleaner.Cleanup(ctx)
		result := domain.CleanupResult{
			Name:       rc.cleaner.Name(),
			BytesFreed: bytesFreed,
			Success:    err == nil,
			Err:        err,
		}
		if err != nil {
			c.logger.Warnw("cleaner failed",
				"cleaner", result.Name,
				"error", err,
			)
		} else {
			freed += bytesFreed
		}
		results = append(results, result)
	}

	tracing.AddSpanAttributes(ctx,
		attribute.Int("cleanup.cleaners", len(results)),
		attribute.Int64("cleanup.bytes_freed", int64(freed)),
	)
	c.logger.Infow("cleanup pass complete",
		"max_priority", maxPriority.String(),
		"cleaners", len(results),
		"bytes_freed", freed,
	)

	c.results.Publish(results)
	return results
}
