package notify

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 100

type subscriber struct {
	ch    chan Notice
	kinds []Kind // empty means every kind
	place string // only near_place notices for this place; empty means any
}

func (s *subscriber) wants(n Notice) bool {
	if len(s.kinds) > 0 && !slices.Contains(s.kinds, n.Kind) {
		return false
	}
	return s.place == "" || n.PlaceID == s.place
}

// Filter narrows a subscription. The zero Filter receives everything.
type Filter struct {
	Kinds []Kind
	// PlaceID limits delivery to near_place notices for that saved place.
	PlaceID string
}

// Broadcaster fans notices out to stream subscribers. A subscriber whose
// buffer is full misses the notice and the miss is counted.
type Broadcaster struct {
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]*subscriber),
	}
}

// Subscribe receives every notice.
func (b *Broadcaster) Subscribe() (uint64, <-chan Notice) {
	return b.SubscribeFiltered(Filter{})
}

func (b *Broadcaster) SubscribeFiltered(f Filter) (uint64, <-chan Notice) {
	id := b.nextID.Add(1)
	sub := &subscriber{
		ch:    make(chan Notice, subscriberBuffer),
		kinds: slices.Clone(f.Kinds),
		place: f.PlaceID,
	}
	if sub.place != "" {
		sub.kinds = []Kind{KindNearPlace}
	}

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	return id, sub.ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast returns how many subscribers received n. Subscribers filtering
// n out are not counted.
func (b *Broadcaster) Broadcast(n Notice) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var delivered int
	for _, sub := range b.subscribers {
		if !sub.wants(n) {
			continue
		}
		select {
		case sub.ch <- n:
			delivered++
		default:
			b.dropped.Add(1)
		}
	}
	return delivered
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped is the number of deliveries skipped because a buffer was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes all subscriber channels so streams exit.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

// ParseKinds validates kind names from a query string.
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		k := Kind(name)
		switch k {
		case KindSignificant, KindTsunami, KindNearPlace:
		default:
			return nil, fmt.Errorf("unknown notice kind: %q", name)
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
