package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-hazard-watch/internal/cache"
	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
	"github.com/mr1hm/go-hazard-watch/internal/repository"
	"github.com/mr1hm/go-hazard-watch/internal/sources"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errUpstream = errors.New("upstream unavailable")

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeQuakes implements EarthquakeSource for testing
type fakeQuakes struct {
	mu      sync.Mutex
	events  []models.HazardEvent
	err     error
	feeds   []sources.Feed
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
}

func (f *fakeQuakes) FetchEarthquakes(ctx context.Context, feed sources.Feed) ([]models.HazardEvent, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = append(f.feeds, feed)
	return f.events, f.err
}

func (f *fakeQuakes) set(events []models.HazardEvent, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
	f.err = err
}

type fakeTsunami []models.TsunamiAlert

func (f fakeTsunami) FetchTsunamiAlerts(context.Context) []models.TsunamiAlert {
	return f
}

type fakePlates struct {
	data  []models.PlateBoundary
	calls atomic.Int32
}

func (f *fakePlates) FetchPlateBoundaries(context.Context) []models.PlateBoundary {
	f.calls.Add(1)
	return f.data
}

type fakeNuclear struct {
	calls atomic.Int32
}

func (f *fakeNuclear) FetchNuclearPlants(context.Context) []models.NuclearPlant {
	f.calls.Add(1)
	return sources.FallbackNuclearPlants()
}

type fakePrefs struct {
	mu sync.Mutex
	p  models.Preferences
}

func (f *fakePrefs) setPollingFrequency(ms int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.p.PollingFrequency = ms
}

func (f *fakePrefs) Current() models.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.p
}

type recordingObserver struct {
	mu     sync.Mutex
	events []models.HazardEvent
	calls  int
}

func (r *recordingObserver) ObserveEvents(events []models.HazardEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.events = append(r.events, events...)
}

func testPrefs() *fakePrefs {
	return &fakePrefs{p: models.Preferences{
		PollingFrequency:   60000,
		FeedTimeRange:      "day",
		FeedMagnitudeRange: "2.5",
	}}
}

func quake(id string, mag float64, at time.Time) models.HazardEvent {
	return models.HazardEvent{
		ID:         id,
		Magnitude:  mag,
		OccurredAt: at,
		Latitude:   35,
		Longitude:  139,
	}
}

type harness struct {
	mgr   *Manager
	clock *clockwork.FakeClock
	cache *cache.Cache
	quake *fakeQuakes
	prefs *fakePrefs
}

func newHarness(t *testing.T, opts ...func(*Sources, *Options)) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	c := cache.New(repository.NewMemoryStore(), cache.DefaultRetention, clock, nil)
	q := &fakeQuakes{}
	prefs := testPrefs()

	src := Sources{
		Earthquakes: q,
		Volcanoes:   func() []models.Volcano { return nil },
	}
	o := Options{Clock: clock, Metrics: observability.NewMetricsForTesting()}
	for _, fn := range opts {
		fn(&src, &o)
	}

	return &harness{
		mgr:   NewManager(src, c, prefs, o),
		clock: clock,
		cache: c,
		quake: q,
		prefs: prefs,
	}
}

func TestRefresh_Success(t *testing.T) {
	h := newHarness(t)
	h.quake.set([]models.HazardEvent{
		quake("a", 6.1, epoch.Add(-10*time.Minute)),
		quake("b", 3.0, epoch.Add(-3*time.Hour)),
	}, nil)

	require.NoError(t, h.mgr.Refresh(context.Background()))

	st := h.mgr.Status()
	assert.Equal(t, StateSuccess, st.Events.State)
	assert.False(t, st.Events.IsError)
	assert.False(t, st.Events.FromCache)
	assert.Equal(t, 2, st.Events.Count)
	require.NotNil(t, st.LastUpdated)
	assert.Equal(t, epoch, *st.LastUpdated)

	assert.Len(t, h.mgr.Events(), 2)
	assert.Equal(t, "a", h.mgr.Significant()[0].ID)
	assert.Len(t, h.mgr.Significant(), 1)
	assert.Len(t, h.mgr.Recent(), 1)

	// write-through
	cached := h.cache.GetCachedEvents(context.Background(), cache.Query{})
	assert.Len(t, cached, 2)
}

func TestRefresh_FallsBackToCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var seeded []models.HazardEvent
	for i := range 5 {
		seeded = append(seeded, quake(fmt.Sprintf("cached-%d", i), 4.0, epoch.Add(-time.Duration(i)*time.Hour)))
	}
	require.NoError(t, h.cache.CacheEvents(ctx, seeded))
	h.quake.set(nil, errUpstream)

	err := h.mgr.Refresh(ctx)
	require.ErrorIs(t, err, errUpstream)

	st := h.mgr.Status()
	assert.Equal(t, StateFailed, st.Events.State)
	assert.False(t, st.Events.IsError, "cache served the failure")
	assert.True(t, st.Events.FromCache)
	assert.Equal(t, 5, st.Events.Count)
	assert.Contains(t, st.Events.LastError, "upstream unavailable")
	assert.Nil(t, st.LastUpdated, "lastUpdated moves only on success")
	assert.Len(t, h.mgr.Events(), 5)
}

func TestRefresh_FallbackWithEmptyCacheIsError(t *testing.T) {
	h := newHarness(t)
	h.quake.set(nil, errUpstream)

	require.Error(t, h.mgr.Refresh(context.Background()))

	st := h.mgr.Status()
	assert.True(t, st.Events.IsError)
	assert.Equal(t, 0, st.Events.Count)
	assert.Empty(t, h.mgr.Events())
}

func TestRefresh_SuccessThenFailureServesCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var batch []models.HazardEvent
	for i := range 5 {
		batch = append(batch, quake(fmt.Sprintf("ev-%d", i), 4.5, epoch.Add(-time.Duration(i)*time.Minute)))
	}
	h.quake.set(batch, nil)
	require.NoError(t, h.mgr.Refresh(ctx))
	assert.Equal(t, StateSuccess, h.mgr.Status().Events.State)

	h.clock.Advance(time.Minute)
	h.quake.set(nil, errUpstream)
	require.Error(t, h.mgr.Refresh(ctx))

	st := h.mgr.Status()
	assert.Equal(t, StateFailed, st.Events.State)
	assert.False(t, st.Events.IsError)
	assert.Equal(t, 5, st.Events.Count)
	assert.ElementsMatch(t, batch, h.mgr.Events())
	require.NotNil(t, st.LastUpdated)
	assert.Equal(t, epoch, *st.LastUpdated)
}

func TestRefresh_UsesPreferredFeed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.prefs.p.FeedTimeRange = "week"
	h.prefs.p.FeedMagnitudeRange = "significant"
	require.NoError(t, h.mgr.Refresh(ctx))

	h.prefs.p.FeedTimeRange = "fortnight"
	require.NoError(t, h.mgr.Refresh(ctx))

	require.Len(t, h.quake.feeds, 2)
	assert.Equal(t, sources.Feed{Time: sources.TimeRangeWeek, Magnitude: sources.MagnitudeSignificant}, h.quake.feeds[0])
	assert.Equal(t, sources.DefaultFeed(), h.quake.feeds[1])
}

func TestRefresh_CoalescesConcurrentCalls(t *testing.T) {
	h := newHarness(t)
	h.quake.release = make(chan struct{})
	h.quake.started = make(chan struct{}, 4)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.mgr.Refresh(context.Background())
		}()
	}

	<-h.quake.started
	// give the second caller time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(h.quake.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), h.quake.calls.Load())
}

func TestRefresh_CallerCancelDoesNotAbortFetch(t *testing.T) {
	h := newHarness(t)
	h.quake.release = make(chan struct{})
	h.quake.started = make(chan struct{}, 1)
	h.quake.set([]models.HazardEvent{quake("a", 4, epoch)}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.mgr.Refresh(ctx) }()

	<-h.quake.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(h.quake.release)
	assert.Eventually(t, func() bool {
		return h.mgr.Status().Events.State == StateSuccess
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, h.mgr.Events(), 1)
}

func TestRefresh_MergesTsunamiSources(t *testing.T) {
	older := epoch.Add(-2 * time.Hour)
	newer := epoch.Add(-time.Hour)

	h := newHarness(t, func(s *Sources, _ *Options) {
		s.Tsunami = []TsunamiSource{
			fakeTsunami{{ID: "noaa-1", SentAt: &older}, {ID: "noaa-2", SentAt: &newer}},
			fakeTsunami{{ID: "noaa-1", Title: "duplicate"}, {ID: "ph-info-phivolcs"}},
		}
	})

	require.NoError(t, h.mgr.Refresh(context.Background()))

	alerts := h.mgr.TsunamiAlerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, "noaa-2", alerts[0].ID)
	assert.Equal(t, "noaa-1", alerts[1].ID)
	assert.Empty(t, alerts[1].Title, "first occurrence wins")
	assert.Equal(t, "ph-info-phivolcs", alerts[2].ID)
	assert.Equal(t, 3, h.mgr.Status().Tsunami.Count)
}

func TestRefresh_DerivesWarnings(t *testing.T) {
	h := newHarness(t, func(s *Sources, _ *Options) {
		s.Volcanoes = func() []models.Volcano {
			return []models.Volcano{
				{ID: "calm", Name: "Calm", AlertLevel: models.AlertLevelNormal},
				{ID: "hot", Name: "Hot", AlertLevel: models.AlertLevelWarning, Status: "erupting"},
			}
		}
	})

	require.NoError(t, h.mgr.Refresh(context.Background()))

	warnings := h.mgr.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "warning-hot", warnings[0].ID)
	assert.Equal(t, StateSuccess, h.mgr.Status().Warnings.State)
}

func TestRefresh_ObserverSeesOnlyNewEvents(t *testing.T) {
	obs := &recordingObserver{}
	h := newHarness(t, func(_ *Sources, o *Options) { o.Observer = obs })
	ctx := context.Background()

	h.quake.set([]models.HazardEvent{quake("a", 5, epoch), quake("b", 5, epoch)}, nil)
	require.NoError(t, h.mgr.Refresh(ctx))
	assert.Equal(t, 0, obs.calls, "first snapshot primes the set")

	h.quake.set([]models.HazardEvent{quake("a", 5, epoch), quake("b", 5, epoch), quake("c", 6, epoch)}, nil)
	require.NoError(t, h.mgr.Refresh(ctx))
	require.Equal(t, 1, obs.calls)
	require.Len(t, obs.events, 1)
	assert.Equal(t, "c", obs.events[0].ID)

	// an event that rolls out and back in is not new
	h.quake.set([]models.HazardEvent{quake("a", 5, epoch)}, nil)
	require.NoError(t, h.mgr.Refresh(ctx))
	h.quake.set([]models.HazardEvent{quake("a", 5, epoch), quake("b", 5, epoch)}, nil)
	require.NoError(t, h.mgr.Refresh(ctx))
	assert.Equal(t, 1, obs.calls)
}

func TestStatus_Countdown(t *testing.T) {
	h := newHarness(t)

	st := h.mgr.Status()
	assert.Equal(t, int64(60000), st.PollingFrequency)
	assert.Equal(t, int64(0), st.SecondsUntilNextRefresh)
	assert.Equal(t, StateIdle, st.Events.State)

	require.NoError(t, h.mgr.Refresh(context.Background()))
	assert.Equal(t, int64(60), h.mgr.Status().SecondsUntilNextRefresh)

	h.clock.Advance(20*time.Second + 500*time.Millisecond)
	assert.Equal(t, int64(40), h.mgr.Status().SecondsUntilNextRefresh)

	h.clock.Advance(2 * time.Minute)
	assert.Equal(t, int64(0), h.mgr.Status().SecondsUntilNextRefresh)
}

func TestSecondsUntil(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		elapsed  time.Duration
		want     int64
	}{
		{"just refreshed", time.Minute, 0, 60},
		{"rounds up", time.Minute, 59*time.Second + time.Millisecond, 1},
		{"due", time.Minute, time.Minute, 0},
		{"overdue", time.Minute, time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecondsUntil(tt.interval, tt.elapsed))
		})
	}
}

func TestStaticData_TTL(t *testing.T) {
	plates := &fakePlates{data: []models.PlateBoundary{{ID: "na-pa"}}}
	nuclear := &fakeNuclear{}
	h := newHarness(t, func(s *Sources, o *Options) {
		s.Plates = plates
		s.Nuclear = nuclear
		o.StaticTTL = time.Hour
	})
	ctx := context.Background()

	assert.Len(t, h.mgr.PlateBoundaries(ctx), 1)
	assert.Len(t, h.mgr.PlateBoundaries(ctx), 1)
	assert.Equal(t, int32(1), plates.calls.Load())

	h.clock.Advance(time.Hour)
	assert.Len(t, h.mgr.PlateBoundaries(ctx), 1)
	assert.Equal(t, int32(2), plates.calls.Load())

	assert.Len(t, h.mgr.NuclearPlants(ctx), 15)
	assert.Len(t, h.mgr.NuclearPlants(ctx), 15)
	assert.Equal(t, int32(1), nuclear.calls.Load())
}

func TestStaticData_EmptyResultIsRetried(t *testing.T) {
	plates := &fakePlates{}
	h := newHarness(t, func(s *Sources, _ *Options) { s.Plates = plates })
	ctx := context.Background()

	assert.Empty(t, h.mgr.PlateBoundaries(ctx))
	assert.NotNil(t, h.mgr.PlateBoundaries(ctx))
	assert.Equal(t, int32(2), plates.calls.Load())
}

func TestStaticData_MissingSource(t *testing.T) {
	h := newHarness(t)
	assert.Empty(t, h.mgr.PlateBoundaries(context.Background()))
	assert.Empty(t, h.mgr.NuclearPlants(context.Background()))
}

func TestManager_StartAndStop(t *testing.T) {
	h := newHarness(t)
	h.prefs.p.PollingFrequency = 30000

	h.mgr.Start(context.Background())

	require.Eventually(t, func() bool { return h.quake.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))

	h.clock.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return h.quake.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	h.mgr.Stop()
}

func TestManager_IntervalChangeTakesEffectBeforeOldTick(t *testing.T) {
	h := newHarness(t)
	h.prefs.p.PollingFrequency = 60000

	h.mgr.Start(context.Background())
	defer h.mgr.Stop()

	require.Eventually(t, func() bool { return h.quake.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))

	h.clock.Advance(10 * time.Second)
	h.prefs.setPollingFrequency(30000)
	h.mgr.PollIntervalChanged()

	// new deadline is 30s after the last refresh, well before the old 60s tick
	h.clock.Advance(20 * time.Second)
	require.Eventually(t, func() bool { return h.quake.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return h.mgr.Status().SecondsUntilNextRefresh == 30
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(30000), h.mgr.Status().PollingFrequency)
}

func TestManager_IntervalChangePastDeadlineRefreshesNow(t *testing.T) {
	h := newHarness(t)
	h.prefs.p.PollingFrequency = 300000

	h.mgr.Start(context.Background())
	defer h.mgr.Stop()

	require.Eventually(t, func() bool { return h.quake.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))

	h.clock.Advance(time.Minute)
	h.prefs.setPollingFrequency(30000)
	h.mgr.PollIntervalChanged()

	require.Eventually(t, func() bool { return h.quake.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestManager_PollIntervalChangedNeverBlocks(t *testing.T) {
	h := newHarness(t)
	for range 5 {
		h.mgr.PollIntervalChanged()
	}
}

func TestManager_StopsWithParentContext(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	h.mgr.Start(ctx)
	require.Eventually(t, func() bool { return h.quake.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	h.mgr.Stop()
}
