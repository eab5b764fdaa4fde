// Package preferences owns the singleton settings record and the runtime map
// layer toggles.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/repository"
	"github.com/mr1hm/go-hazard-watch/internal/sources"
)

var ErrInvalidPatch = errors.New("invalid preferences patch")

const (
	DefaultPollingFrequency = int64(5 * time.Minute / time.Millisecond)
	MinPollingFrequency     = int64(30 * time.Second / time.Millisecond)
)

func Defaults() models.Preferences {
	feed := sources.DefaultFeed()
	return models.Preferences{
		Units:                models.UnitsMetric,
		TimeFormat:           models.TimeFormat24h,
		PollingFrequency:     DefaultPollingFrequency,
		FeedTimeRange:        string(feed.Time),
		FeedMagnitudeRange:   string(feed.Magnitude),
		ShowTsunamiAlerts:    true,
		ShowVolcanoes:        true,
		ShowPlateBoundaries:  true,
		ShowNuclearPlants:    false,
		NotificationsEnabled: true,
		NotifyMinMagnitude:   5.0,
		NotifyTsunami:        true,
		QuietHoursEnabled:    false,
		QuietHoursStart:      "22:00",
		QuietHoursEnd:        "07:00",
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Units              *string `json:"units"`
	TimeFormat         *string `json:"timeFormat"`
	PollingFrequency   *int64  `json:"pollingFrequency"`
	FeedTimeRange      *string `json:"feedTimeRange"`
	FeedMagnitudeRange *string `json:"feedMagnitudeRange"`

	ShowTsunamiAlerts   *bool `json:"showTsunamiAlerts"`
	ShowVolcanoes       *bool `json:"showVolcanoes"`
	ShowPlateBoundaries *bool `json:"showPlateBoundaries"`
	ShowNuclearPlants   *bool `json:"showNuclearPlants"`

	NotificationsEnabled *bool    `json:"notificationsEnabled"`
	NotifyMinMagnitude   *float64 `json:"notifyMinMagnitude"`
	NotifyTsunami        *bool    `json:"notifyTsunami"`
	QuietHoursEnabled    *bool    `json:"quietHoursEnabled"`
	QuietHoursStart      *string  `json:"quietHoursStart"`
	QuietHoursEnd        *string  `json:"quietHoursEnd"`
}

func (p Patch) apply(prefs models.Preferences) models.Preferences {
	set(&prefs.Units, p.Units)
	set(&prefs.TimeFormat, p.TimeFormat)
	set(&prefs.PollingFrequency, p.PollingFrequency)
	set(&prefs.FeedTimeRange, p.FeedTimeRange)
	set(&prefs.FeedMagnitudeRange, p.FeedMagnitudeRange)
	set(&prefs.ShowTsunamiAlerts, p.ShowTsunamiAlerts)
	set(&prefs.ShowVolcanoes, p.ShowVolcanoes)
	set(&prefs.ShowPlateBoundaries, p.ShowPlateBoundaries)
	set(&prefs.ShowNuclearPlants, p.ShowNuclearPlants)
	set(&prefs.NotificationsEnabled, p.NotificationsEnabled)
	set(&prefs.NotifyMinMagnitude, p.NotifyMinMagnitude)
	set(&prefs.NotifyTsunami, p.NotifyTsunami)
	set(&prefs.QuietHoursEnabled, p.QuietHoursEnabled)
	set(&prefs.QuietHoursStart, p.QuietHoursStart)
	set(&prefs.QuietHoursEnd, p.QuietHoursEnd)
	return prefs
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks a complete record.
func Validate(p models.Preferences) error {
	switch p.Units {
	case models.UnitsMetric, models.UnitsImperial:
	default:
		return fmt.Errorf("%w: units %q", ErrInvalidPatch, p.Units)
	}
	switch p.TimeFormat {
	case models.TimeFormat12h, models.TimeFormat24h:
	default:
		return fmt.Errorf("%w: timeFormat %q", ErrInvalidPatch, p.TimeFormat)
	}
	if p.PollingFrequency < MinPollingFrequency {
		return fmt.Errorf("%w: pollingFrequency must be at least %dms", ErrInvalidPatch, MinPollingFrequency)
	}
	if _, err := sources.ParseFeed(p.FeedTimeRange, p.FeedMagnitudeRange); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if math.IsNaN(p.NotifyMinMagnitude) || p.NotifyMinMagnitude < 0 || p.NotifyMinMagnitude > 10 {
		return fmt.Errorf("%w: notifyMinMagnitude out of range", ErrInvalidPatch)
	}
	if _, err := ParseClock(p.QuietHoursStart); err != nil {
		return fmt.Errorf("%w: quietHoursStart: %v", ErrInvalidPatch, err)
	}
	if _, err := ParseClock(p.QuietHoursEnd); err != nil {
		return fmt.Errorf("%w: quietHoursEnd: %v", ErrInvalidPatch, err)
	}
	return nil
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Store holds the in-memory preferences and writes the full record through
// to the repository on every save. All saves serialize on one mutex so a
// patch always merges into the latest value.
type Store struct {
	repo     repository.PreferencesRepository
	clock    clockwork.Clock
	defaults models.Preferences

	mu       sync.RWMutex
	current  models.Preferences
	ready    bool
	onChange []ChangeFunc
}

// ChangeFunc observes a saved change. It runs after the store lock is
// released, in the saving goroutine.
type ChangeFunc func(prev, next models.Preferences)

// OnChange registers fn for every successful Save.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// NewStore uses defaults for first runs and unreadable records.
func NewStore(repo repository.PreferencesRepository, clock clockwork.Clock, defaults models.Preferences) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		repo:     repo,
		clock:    clock,
		defaults: defaults,
	}
}

// Load returns the persisted record, or nil on first run.
func (s *Store) Load(ctx context.Context) (*models.Preferences, error) {
	p, err := s.repo.LoadPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading preferences: %w", err)
	}
	return p, nil
}

// Init loads the persisted record into memory, or the defaults on first run.
// A read failure or an invalid stored record also falls back to the defaults.
func (s *Store) Init(ctx context.Context) models.Preferences {
	prefs := s.defaults
	stored, err := s.Load(ctx)
	switch {
	case err != nil:
		slog.Warn("preferences unavailable, using defaults", "error", err)
	case stored == nil:
		slog.Info("no saved preferences, using defaults")
	default:
		if verr := Validate(*stored); verr != nil {
			slog.Warn("stored preferences invalid, using defaults", "error", verr)
		} else {
			prefs = *stored
		}
	}

	s.mu.Lock()
	s.current = prefs
	s.ready = true
	s.mu.Unlock()
	return prefs
}

// Current returns a copy of the in-memory record. It panics before Init.
func (s *Store) Current() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		panic("preferences: Store used before Init")
	}
	return s.current
}

// Save merges patch into the latest in-memory record, stamps LastUpdated and
// persists the full result. Only an invalid patch is an error; a persistence
// failure is logged and the in-memory record still changes.
func (s *Store) Save(ctx context.Context, patch Patch) (models.Preferences, error) {
	prev, next, hooks, err := s.save(ctx, patch)
	if err != nil {
		return prev, err
	}
	for _, fn := range hooks {
		fn(prev, next)
	}
	return next, nil
}

func (s *Store) save(ctx context.Context, patch Patch) (prev, next models.Preferences, hooks []ChangeFunc, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		panic("preferences: Store used before Init")
	}

	prev = s.current
	next = patch.apply(prev)
	if err := Validate(next); err != nil {
		return prev, prev, nil, err
	}
	next.LastUpdated = s.clock.Now().UTC()

	if err := s.repo.SavePreferences(ctx, next); err != nil {
		slog.Warn("error persisting preferences", "error", err)
	}
	s.current = next
	return prev, next, slices.Clone(s.onChange), nil
}
