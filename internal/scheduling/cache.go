package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelane/hospital-platform/pkg/logging"
)

// SlotCache keeps recently computed slot lists in Redis for a short TTL.
// A nil *SlotCache (or one built with a nil client) disables caching, so
// callers never need to branch on its presence.
type SlotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
}

// NewSlotCache wraps a Redis client. ttl <= 0 falls back to 15 seconds.
func NewSlotCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *SlotCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SlotCache{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("hospital.internal.scheduling.cache"),
		logger: logger,
	}
}

func slotKey(doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("slots:%s:%s", doctorID, date)
}

// Get returns the cached slot list for (doctor, date), if any. Redis errors
// are treated as a miss; the caller recomputes from the store.
func (c *SlotCache) Get(ctx context.Context, doctorID uuid.UUID, date string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	ctx, span := c.tracer.Start(ctx, "scheduling.cache_get")
	defer span.End()

	data, err := c.redis.Get(ctx, slotKey(doctorID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			span.RecordError(err)
			c.logger.Warn("slot cache read failed", "error", err)
		}
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		span.RecordError(err)
		return nil, false
	}
	return slots, true
}

// Set stores the slot list for (doctor, date) with the cache TTL.
func (c *SlotCache) Set(ctx context.Context, doctorID uuid.UUID, date string, slots []string) {
	if c == nil {
		return
	}
	ctx, span := c.tracer.Start(ctx, "scheduling.cache_set")
	defer span.End()

	data, err := json.Marshal(slots)
	if err != nil {
		span.RecordError(err)
		return
	}
	if err := c.redis.Set(ctx, slotKey(doctorID, date), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("slot cache write failed", "error", err)
	}
}

// Invalidate drops the cached list for (doctor, date). Called after any
// booking or cancellation touching that day, so stale previews only ever
// shorten the offered set.
func (c *SlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID, date string) {
	if c == nil {
		return
	}
	ctx, span := c.tracer.Start(ctx, "scheduling.cache_invalidate")
	defer span.End()

	if err := c.redis.Del(ctx, slotKey(doctorID, date)).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("slot cache invalidate failed", "error", err)
	}
}
