// Package ingestion runs the polling and refresh cycle: it fetches every
// source on the preferences' interval or on demand, keeps the latest snapshot
// per resource, writes events through to the cache and falls back to it when
// the seismic feed fails.
package ingestion

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mr1hm/go-hazard-watch/internal/aggregate"
	"github.com/mr1hm/go-hazard-watch/internal/cache"
	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
	"github.com/mr1hm/go-hazard-watch/internal/sources"
)

const defaultPollInterval = 5 * time.Minute

type EarthquakeSource interface {
	FetchEarthquakes(ctx context.Context, feed sources.Feed) ([]models.HazardEvent, error)
}

type TsunamiSource interface {
	FetchTsunamiAlerts(ctx context.Context) []models.TsunamiAlert
}

type PlateSource interface {
	FetchPlateBoundaries(ctx context.Context) []models.PlateBoundary
}

type NuclearSource interface {
	FetchNuclearPlants(ctx context.Context) []models.NuclearPlant
}

type EventCache interface {
	CacheEvents(ctx context.Context, events []models.HazardEvent) error
	GetCachedEvents(ctx context.Context, q cache.Query) []models.HazardEvent
}

type PreferencesSource interface {
	Current() models.Preferences
}

// EventObserver receives events that appear for the first time after the
// initial snapshot.
type EventObserver interface {
	ObserveEvents(events []models.HazardEvent)
}

type Sources struct {
	Earthquakes EarthquakeSource
	Tsunami     []TsunamiSource
	Plates      PlateSource
	Nuclear     NuclearSource
	Volcanoes   func() []models.Volcano
}

type Options struct {
	Clock     clockwork.Clock
	Metrics   *observability.Metrics
	Observer  EventObserver
	StaticTTL time.Duration
}

type Manager struct {
	src     Sources
	cache   EventCache
	prefs   PreferencesSource
	clock   clockwork.Clock
	metrics *observability.Metrics
	obs     EventObserver

	flight singleflight.Group
	wake   chan struct{}
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	events   resource[models.HazardEvent]
	tsunami  resource[models.TsunamiAlert]
	warnings resource[models.VolcanoWarning]
	seen     map[string]struct{}
	primed   bool

	plates  static[models.PlateBoundary]
	nuclear static[models.NuclearPlant]
}

func NewManager(src Sources, eventCache EventCache, prefs PreferencesSource, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.StaticTTL <= 0 {
		opts.StaticTTL = 24 * time.Hour
	}
	if src.Volcanoes == nil {
		src.Volcanoes = sources.Volcanoes
	}
	return &Manager{
		src:     src,
		cache:   eventCache,
		prefs:   prefs,
		clock:   opts.Clock,
		metrics: opts.Metrics,
		obs:     opts.Observer,
		seen:    make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
		plates:  static[models.PlateBoundary]{ttl: opts.StaticTTL},
		nuclear: static[models.NuclearPlant]{ttl: opts.StaticTTL},
	}
}

// Start refreshes every resource once, then again on each tick of the
// preferences' polling interval until ctx ends or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.runCtx = ctx
	m.cancel = cancel

	m.wg.Add(1)
	go m.runPoller(ctx)
}

func (m *Manager) runPoller(ctx context.Context) {
	defer m.wg.Done()

	interval := m.pollInterval()
	period := interval
	slog.Info("starting poller", "interval", interval)

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	// Initial refresh
	m.refreshLogged(ctx, "initial")

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down")
			return
		case <-m.wake:
			next := m.pollInterval()
			if next == interval {
				continue
			}
			slog.Info("polling interval changed", "from", interval, "to", next)
			interval = next

			// realign to the last successful refresh under the new interval
			due := m.untilDue(interval)
			if due <= 0 {
				m.refreshLogged(ctx, "interval")
				due = interval
			}
			ticker.Reset(due)
			period = due
		case <-ticker.Chan():
			m.refreshLogged(ctx, "interval")
			if next := m.pollInterval(); next != interval {
				slog.Info("polling interval changed", "from", interval, "to", next)
				interval = next
			}
			if period != interval {
				ticker.Reset(interval)
				period = interval
			}
		}
	}
}

// PollIntervalChanged tells a running poller to re-read the polling
// interval now instead of at its next tick. It never blocks.
func (m *Manager) PollIntervalChanged() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// untilDue is how long until the next refresh is due under interval, counted
// from the last successful events refresh. Never refreshed means due now.
func (m *Manager) untilDue(interval time.Duration) time.Duration {
	m.mu.RLock()
	last := m.events.lastUpdated
	m.mu.RUnlock()
	if last.IsZero() {
		return 0
	}
	return interval - m.clock.Since(last)
}

func (m *Manager) refreshLogged(ctx context.Context, trigger string) {
	if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("refresh completed with errors", "trigger", trigger, "error", err)
	}
}

func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	slog.Info("ingestion manager stopped")
}

func (m *Manager) pollInterval() time.Duration {
	if d := m.prefs.Current().PollInterval(); d > 0 {
		return d
	}
	return defaultPollInterval
}

// Refresh fetches all three resources concurrently. A refresh of a resource
// that is already in flight joins it instead of starting another fetch. The
// returned error is the seismic feed's, after the cache fallback was applied.
func (m *Manager) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return m.coalesce(ctx, ResourceEvents, m.refreshEvents) })
	g.Go(func() error { return m.coalesce(ctx, ResourceTsunami, m.refreshTsunami) })
	g.Go(func() error { return m.coalesce(ctx, ResourceWarnings, m.refreshWarnings) })
	return g.Wait()
}

// coalesce runs fn once per resource at a time. The fetch is bound to the
// manager's lifetime, not the caller's, so a caller giving up does not abort
// a fetch other callers joined.
func (m *Manager) coalesce(ctx context.Context, res Resource, fn func(context.Context) error) error {
	fetchCtx := context.WithoutCancel(ctx)
	if m.runCtx != nil {
		fetchCtx = m.runCtx
	}

	ch := m.flight.DoChan(string(res), func() (any, error) {
		start := m.clock.Now()
		err := fn(fetchCtx)
		if m.metrics != nil {
			m.metrics.RefreshDuration.WithLabelValues(string(res)).Observe(m.clock.Since(start).Seconds())
		}
		return nil, err
	})

	select {
	case r := <-ch:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) feed() sources.Feed {
	p := m.prefs.Current()
	feed, err := sources.ParseFeed(p.FeedTimeRange, p.FeedMagnitudeRange)
	if err != nil {
		return sources.DefaultFeed()
	}
	return feed
}

func (m *Manager) refreshEvents(ctx context.Context) error {
	m.mu.Lock()
	m.events.begin()
	m.mu.Unlock()

	feed := m.feed()
	events, err := m.src.Earthquakes.FetchEarthquakes(ctx, feed)
	if err != nil {
		cached := m.cache.GetCachedEvents(ctx, cache.Query{})
		if m.metrics != nil {
			m.metrics.CacheFallbacks.Inc()
		}
		slog.Warn("earthquake fetch failed, serving cache", "feed", feed.String(), "cached", len(cached), "error", err)

		m.mu.Lock()
		m.events.fail(err, cached, len(cached) == 0)
		m.events.fromCache = true
		m.mu.Unlock()
		return err
	}

	if err := m.cache.CacheEvents(ctx, events); err != nil {
		slog.Warn("error caching events", "count", len(events), "error", err)
	}

	m.mu.Lock()
	m.events.succeed(events, m.clock.Now())
	m.events.fromCache = false
	fresh := m.markSeen(events)
	m.mu.Unlock()

	if len(fresh) > 0 && m.obs != nil {
		m.obs.ObserveEvents(fresh)
	}
	slog.Debug("earthquakes refreshed", "feed", feed.String(), "count", len(events), "new", len(fresh))
	return nil
}

// markSeen records ids and returns the events not seen before. The first
// snapshot only primes the set. Callers hold m.mu.
func (m *Manager) markSeen(events []models.HazardEvent) []models.HazardEvent {
	var fresh []models.HazardEvent
	for _, e := range events {
		if _, ok := m.seen[e.ID]; ok {
			continue
		}
		m.seen[e.ID] = struct{}{}
		if m.primed {
			fresh = append(fresh, e)
		}
	}
	m.primed = true
	return fresh
}

func (m *Manager) refreshTsunami(ctx context.Context) error {
	m.mu.Lock()
	m.tsunami.begin()
	m.mu.Unlock()

	lists := make([][]models.TsunamiAlert, len(m.src.Tsunami))
	var g errgroup.Group
	for i, s := range m.src.Tsunami {
		g.Go(func() error {
			lists[i] = s.FetchTsunamiAlerts(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		m.mu.Lock()
		m.tsunami.fail(err, m.tsunami.data, false)
		m.mu.Unlock()
		return err
	}

	merged := aggregate.MergeTsunamiSources(lists...)
	m.mu.Lock()
	m.tsunami.succeed(merged, m.clock.Now())
	m.mu.Unlock()
	slog.Debug("tsunami alerts refreshed", "count", len(merged))
	return nil
}

func (m *Manager) refreshWarnings(ctx context.Context) error {
	m.mu.Lock()
	m.warnings.begin()
	m.mu.Unlock()

	warnings := aggregate.DeriveWarnings(m.src.Volcanoes())

	m.mu.Lock()
	m.warnings.succeed(warnings, m.clock.Now())
	m.mu.Unlock()
	return nil
}

func (m *Manager) Events() []models.HazardEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events.data)
}

func (m *Manager) Significant() []models.HazardEvent {
	return aggregate.DeriveSignificant(m.Events())
}

func (m *Manager) Recent() []models.HazardEvent {
	return aggregate.DeriveRecent(m.Events(), m.clock.Now())
}

func (m *Manager) TsunamiAlerts() []models.TsunamiAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tsunami.data)
}

func (m *Manager) Warnings() []models.VolcanoWarning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.warnings.data)
}

// Status snapshots every resource. The countdown is derived from the last
// successful events refresh and never triggers a fetch.
func (m *Manager) Status() Status {
	interval := m.pollInterval()
	now := m.clock.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.events.status()
	events.FromCache = m.events.fromCache
	st := Status{
		Events:           events,
		Tsunami:          m.tsunami.status(),
		Warnings:         m.warnings.status(),
		PollingFrequency: interval.Milliseconds(),
		LastUpdated:      events.LastUpdated,
	}
	if events.LastUpdated != nil {
		st.SecondsUntilNextRefresh = SecondsUntil(interval, now.Sub(*events.LastUpdated))
	}
	return st
}

// SecondsUntil is max(0, interval - elapsed) rounded up to whole seconds.
func SecondsUntil(interval, elapsed time.Duration) int64 {
	remaining := interval - elapsed
	if remaining <= 0 {
		return 0
	}
	return int64(math.Ceil(remaining.Seconds()))
}
