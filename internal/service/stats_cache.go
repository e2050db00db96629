package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// statsCache keeps per-owner counts. A failing backend degrades to a miss;
// it never fails the request.
//
// Entries are keyed by a per-owner generation. invalidate rotates the
// generation instead of deleting, so a fill that read the store before a
// mutation lands under a retired key and is never served.
type statsCache struct {
	store cache.Store
	prom  *observability.Prom
	log   *slog.Logger
}

// counts serves from the cache, falling back to the store and filling the
// cache on the way out.
func (c statsCache) counts(ctx context.Context, tasks TaskStore, ownerID string, now time.Time) (task.Counts, error) {
	ctx, span := observability.StartSpan(ctx, "tasks.stats")
	defer span.End()

	gen, cacheable := c.generation(ctx, ownerID)
	if cacheable {
		if counts, ok := c.get(ctx, ownerID, gen); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return counts, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	counts, err := tasks.Counts(ctx, ownerID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count tasks")
		return task.Counts{}, err
	}

	if cacheable {
		c.put(ctx, ownerID, gen, counts)
	}

	return counts, nil
}

// generation returns the owner's current generation, starting one when none
// is stored. ok is false when the backend cannot be used for this call.
func (c statsCache) generation(ctx context.Context, ownerID string) (string, bool) {
	if c.store == nil {
		return "", false
	}

	key := utils.BuildTaskStatsVersionKey(ownerID)

	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.prom.CacheResult("error")
		c.log.WarnContext(ctx, "stats generation read failed", "err", err)
		return "", false
	}
	if ok && len(b) > 0 {
		return string(b), true
	}

	gen := uuid.NewString()
	if err := c.store.Set(ctx, key, []byte(gen)); err != nil {
		c.log.WarnContext(ctx, "stats generation write failed", "err", err)
		return "", false
	}

	return gen, true
}

func (c statsCache) get(ctx context.Context, ownerID, gen string) (task.Counts, bool) {
	b, ok, err := c.store.Get(ctx, utils.BuildTaskStatsCacheKey(ownerID, gen))
	if err != nil {
		c.prom.CacheResult("error")
		c.log.WarnContext(ctx, "stats cache read failed", "err", err)
		return task.Counts{}, false
	}
	if !ok {
		c.prom.CacheResult("miss")
		return task.Counts{}, false
	}

	var counts task.Counts
	if err := json.Unmarshal(b, &counts); err != nil {
		c.prom.CacheResult("error")
		return task.Counts{}, false
	}

	c.prom.CacheResult("hit")
	return counts, true
}

func (c statsCache) put(ctx context.Context, ownerID, gen string, counts task.Counts) {
	b, err := json.Marshal(counts)
	if err != nil {
		return
	}

	if err := c.store.Set(ctx, utils.BuildTaskStatsCacheKey(ownerID, gen), b); err != nil {
		c.log.WarnContext(ctx, "stats cache write failed", "err", err)
	}
}

func (c statsCache) invalidate(ctx context.Context, ownerID string) {
	if c.store == nil {
		return
	}

	if err := c.store.Set(ctx, utils.BuildTaskStatsVersionKey(ownerID), []byte(uuid.NewString())); err != nil {
		c.log.WarnContext(ctx, "stats cache invalidation failed", "owner_id", ownerID, "err", err)
	}
}
