package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
	"github.com/mr1hm/go-hazard-watch/internal/worker"
)

type PreferencesSource interface {
	Current() models.Preferences
}

type PlaceLister interface {
	List(ctx context.Context) ([]models.SavedPlace, error)
}

// Notifier evaluates newly seen events on a worker pool and broadcasts the
// resulting notices.
type Notifier struct {
	prefs       PreferencesSource
	places      PlaceLister
	broadcaster *Broadcaster
	clock       clockwork.Clock
	metrics     *observability.Metrics
	pool        *worker.Pool[models.HazardEvent]
}

func NewNotifier(prefs PreferencesSource, places PlaceLister, broadcaster *Broadcaster, clock clockwork.Clock, metrics *observability.Metrics, workers, buffer int) *Notifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	n := &Notifier{
		prefs:       prefs,
		places:      places,
		broadcaster: broadcaster,
		clock:       clock,
		metrics:     metrics,
	}
	n.pool = worker.NewPool("notifier", workers, buffer, n.process)
	return n
}

func (n *Notifier) Start(ctx context.Context) {
	n.pool.Start(ctx)
}

// Stop waits for queued evaluations. ObserveEvents must not be called after.
func (n *Notifier) Stop() {
	n.pool.Stop()
}

// ObserveEvents queues each event for evaluation. Events that do not fit
// in the queue are dropped with a warning so a slow consumer never stalls a
// refresh.
func (n *Notifier) ObserveEvents(events []models.HazardEvent) {
	var dropped int
	for _, e := range events {
		if !n.pool.TrySubmit(e) {
			dropped++
		}
	}
	if dropped > 0 {
		slog.Warn("notifier queue full, events skipped", "dropped", dropped)
	}
}

func (n *Notifier) process(ctx context.Context, e models.HazardEvent) error {
	places, err := n.places.List(ctx)
	if err != nil {
		// Thresholds still apply without places.
		slog.Warn("error listing places for notices", "error", err)
		places = nil
	}

	notices := Evaluate(e, n.prefs.Current(), places, n.clock.Now())
	for _, notice := range notices {
		delivered := n.broadcaster.Broadcast(notice)
		if n.metrics != nil {
			n.metrics.Notices.WithLabelValues(string(notice.Kind)).Inc()
		}
		slog.Debug("notice published", "id", notice.ID, "subscribers", delivered)
	}
	if err != nil {
		return fmt.Errorf("event %s evaluated without places: %w", e.ID, err)
	}
	return nil
}
