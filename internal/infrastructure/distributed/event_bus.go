package distributed

import (
	"context"
	"encoding/json"
	"time"

	"playcore/internal/core/domain"
	"playcore/pkg/batch"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventType labels analytics events on the bus.
type EventType string

const (
	EventTransition   EventType = "playback.transition"
	EventAlert        EventType = "performance.alert"
	EventCleanupBatch EventType = "cleanup.batch"
)

// Event is the analytics envelope published to redis.
type Event struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"session_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const channel = "playcore:events"

// EventBus ships playback analytics to a redis pub/sub channel.
// Transitions are chatty, so they go through a batcher; alerts and cleanup
// batches publish immediately. Publishing is best-effort: a failed publish
// is logged and dropped, never surfaced to the core.
type EventBus struct {
	client    *redis.Client
	sessionID string
	batcher   *batch.Batcher[Event]
	logger    *zap.SugaredLogger
}

func NewEventBus(client *redis.Client, sessionID string, logger *zap.SugaredLogger) *EventBus {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	bus := &EventBus{
		client:    client,
		sessionID: sessionID,
		logger:    logger,
	}
	bus.batcher = batch.New(32, 2*time.Second, bus.publishBatch)
	return bus
}

// PublishTransition enqueues a transition event.
func (b *EventBus) PublishTransition(t domain.Transition) {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    t.From.String(),
		"to":      t.To.String(),
		"action":  t.Action.Name(),
		"changed": t.Changed(),
	})
	if err != nil {
		return
	}
	b.batcher.Add(Event{
		Type:      EventTransition,
		SessionID: b.sessionID,
		Timestamp: t.Timestamp,
		Payload:   payload,
	})
}

// PublishAlert publishes an alert immediately.
func (b *EventBus) PublishAlert(ctx context.Context, a domain.PerformanceAlert) {
	payload, err := json.Marshal(map[string]interface{}{
		"id":       a.ID,
		"type":     string(a.Type),
		"severity": a.Severity.String(),
		"message":  a.Message,
	})
	if err != nil {
		return
	}
	b.publish(ctx, Event{
		Type:      EventAlert,
		SessionID: b.sessionID,
		Timestamp: a.Timestamp,
		Payload:   payload,
	})
}

// PublishCleanupBatch publishes one cleanup pass immediately.
func (b *EventBus) PublishCleanupBatch(ctx context.Context, results []domain.CleanupResult) {
	type resultRecord struct {
		Name       string `json:"name"`
		BytesFreed uint64 `json:"bytes_freed"`
		Success    bool   `json:"success"`
	}
	records := make([]resultRecord, 0, len(results))
	for _, r := range results {
		records = append(records, resultRecord{Name: r.Name, BytesFreed: r.BytesFreed, Success: r.Success})
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	b.publish(ctx, Event{
		Type:      EventCleanupBatch,
		SessionID: b.sessionID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// Close flushes pending transitions.
func (b *EventBus) Close() {
	b.batcher.Stop()
}

func (b *EventBus) publishBatch(events []Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, event := range events {
		b.publish(ctx, event)
	}
}

func (b *EventBus) publish(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Warnw("event marshal failed", "type", string(event.Type), "error", err)
		return
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Warnw("event publish failed", "type", string(event.Type), "error", err)
	}
}
