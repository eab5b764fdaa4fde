// Package cache is the write-through fallback for hazard events. A
// successful fetch is written here; a failed fetch reads back whatever is
// still inside the retention window.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
	"github.com/mr1hm/go-hazard-watch/internal/repository"
)

const DefaultRetention = 72 * time.Hour

// Query narrows GetCachedEvents. Nil fields impose no constraint.
type Query struct {
	MinTime      *time.Time
	MinMagnitude *float64
}

type Cache struct {
	repo      repository.EventRepository
	retention time.Duration
	clock     clockwork.Clock
	metrics   *observability.Metrics

	sched *cron.Cron
}

func New(repo repository.EventRepository, retention time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Cache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		repo:      repo,
		retention: retention,
		clock:     clock,
		metrics:   metrics,
	}
}

// CacheEvents upserts the batch stamped with the current time, then drops
// everything cached before the retention window. Callers treat a returned
// error as "proceed without caching".
func (c *Cache) CacheEvents(ctx context.Context, events []models.HazardEvent) error {
	now := c.clock.Now()
	if err := c.repo.UpsertEvents(ctx, events, now); err != nil {
		if c.metrics != nil {
			c.metrics.CacheWriteErrors.Inc()
		}
		return fmt.Errorf("error caching %d events: %w", len(events), err)
	}

	if _, err := c.prune(ctx, now); err != nil {
		slog.Warn("cache prune after write failed", "error", err)
	}
	c.recordSize(ctx)
	return nil
}

// GetCachedEvents returns cached events inside the retention window, newest
// first. Read failures are logged and yield an empty slice.
func (c *Cache) GetCachedEvents(ctx context.Context, q Query) []models.HazardEvent {
	events, err := c.repo.ListEvents(ctx, repository.EventQuery{
		CachedAfter:  c.clock.Now().Add(-c.retention),
		MinTime:      q.MinTime,
		MinMagnitude: q.MinMagnitude,
	})
	if err != nil {
		slog.Warn("cache read failed", "error", err)
		return []models.HazardEvent{}
	}
	return events
}

func (c *Cache) Prune(ctx context.Context) (int64, error) {
	n, err := c.prune(ctx, c.clock.Now())
	if err != nil {
		return 0, err
	}
	c.recordSize(ctx)
	return n, nil
}

func (c *Cache) prune(ctx context.Context, now time.Time) (int64, error) {
	n, err := c.repo.DeleteEventsCachedBefore(ctx, now.Add(-c.retention))
	if err != nil {
		return 0, fmt.Errorf("error pruning cache: %w", err)
	}
	if n > 0 {
		slog.Debug("pruned expired events", "count", n)
	}
	return n, nil
}

func (c *Cache) recordSize(ctx context.Context) {
	if c.metrics == nil {
		return
	}
	n, err := c.repo.CountEvents(ctx)
	if err != nil {
		return
	}
	c.metrics.CachedEvents.Set(float64(n))
}

// StartPruner runs Prune on a cron schedule ("@every 1h", "0 * * * *") until
// StopPruner. Jobs run with ctx.
func (c *Cache) StartPruner(ctx context.Context, spec string) error {
	sched := cron.New()
	_, err := sched.AddFunc(spec, func() {
		if _, err := c.Prune(ctx); err != nil {
			slog.Warn("scheduled cache prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}

	c.sched = sched
	sched.Start()
	slog.Info("cache pruner started", "schedule", spec, "retention", c.retention.String())
	return nil
}

// StopPruner stops the schedule and waits for a running prune to finish.
func (c *Cache) StopPruner() {
	if c.sched == nil {
		return
	}
	<-c.sched.Stop().Done()
	c.sched = nil
	slog.Info("cache pruner stopped")
}
