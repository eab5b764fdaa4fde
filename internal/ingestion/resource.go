package ingestion

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Resource string

const (
	ResourceEvents   Resource = "events"
	ResourceTsunami  Resource = "tsunami"
	ResourceWarnings Resource = "warnings"
)

type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateSuccess  State = "success"
	StateFailed   State = "failed"
)

type ResourceStatus struct {
	State       State      `json:"state"`
	IsLoading   bool       `json:"isLoading"`
	IsError     bool       `json:"isError"`
	FromCache   bool       `json:"fromCache,omitempty"`
	Count       int        `json:"count"`
	LastUpdated *time.Time `json:"lastUpdated"`
	LastError   string     `json:"lastError,omitempty"`
}

type Status struct {
	Events                  ResourceStatus `json:"events"`
	Tsunami                 ResourceStatus `json:"tsunami"`
	Warnings                ResourceStatus `json:"warnings"`
	PollingFrequency        int64          `json:"pollingFrequency"`
	LastUpdated             *time.Time     `json:"lastUpdated"`
	SecondsUntilNextRefresh int64          `json:"secondsUntilNextRefresh"`
}

// resource is one polled snapshot with its state machine. Guarded by the
// manager's mutex.
type resource[T any] struct {
	state       State
	data        []T
	lastUpdated time.Time
	lastErr     error
	isError     bool
	fromCache   bool
}

func (r *resource[T]) begin() {
	r.state = StateFetching
}

func (r *resource[T]) succeed(data []T, at time.Time) {
	r.state = StateSuccess
	r.data = data
	r.lastUpdated = at
	r.lastErr = nil
	r.isError = false
}

func (r *resource[T]) fail(err error, fallback []T, isError bool) {
	r.state = StateFailed
	r.data = fallback
	r.lastErr = err
	r.isError = isError
}

func (r *resource[T]) status() ResourceStatus {
	st := ResourceStatus{
		State:     r.state,
		IsLoading: r.state == StateFetching,
		IsError:   r.isError,
		Count:     len(r.data),
	}
	if st.State == "" {
		st.State = StateIdle
	}
	if !r.lastUpdated.IsZero() {
		t := r.lastUpdated
		st.LastUpdated = &t
	}
	if r.lastErr != nil {
		st.LastError = r.lastErr.Error()
	}
	return st
}

// static is a session cache for reference data with a time to live. Empty
// results are not kept so a failed fetch is retried on the next read.
type static[T any] struct {
	ttl time.Duration

	mu        sync.Mutex
	data      []T
	fetchedAt time.Time
}

func (s *static[T]) get(now time.Time) ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil || now.Sub(s.fetchedAt) >= s.ttl {
		return s.data, false
	}
	return s.data, true
}

func (s *static[T]) put(data []T, now time.Time) {
	if len(data) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.fetchedAt = now
}

func loadStatic[T any](ctx context.Context, flight *singleflight.Group, key string, s *static[T], now time.Time, fetch func(context.Context) []T) []T {
	if data, fresh := s.get(now); fresh {
		return data
	}

	v, _, _ := flight.Do(key, func() (any, error) {
		data := fetch(ctx)
		s.put(data, now)
		if len(data) == 0 {
			// keep serving the last good copy
			stale, _ := s.get(now)
			return stale, nil
		}
		return data, nil
	})
	data, _ := v.([]T)
	if data == nil {
		return []T{}
	}
	return data
}
