package collector

import (
	"context"
	"sync"
	"time"

	"TransferSentinel/internal/model"
)

// DefaultEventTTL is how long a fetched season calendar stays fresh.
const DefaultEventTTL = 5 * time.Minute

// Clock supplies the current time to the cache.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// EventCache wraps a Source and keeps the season calendar for ttl after each read.
// Entry histories are not cached.
type EventCache struct {
	src   Source
	ttl   time.Duration
	clock Clock

	mu        sync.Mutex
	events    []model.Event
	fetchedAt time.Time
	valid     bool
}

// NewEventCache creates a cache over src. A nil clock means the wall clock.
func NewEventCache(src Source, ttl time.Duration, clock Clock) *EventCache {
	if clock == nil {
		clock = SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &EventCache{src: src, ttl: ttl, clock: clock}
}

func (c *EventCache) Name() string { return c.src.Name() + "+cache" }

// Events returns the cached calendar while it is fresh, otherwise reloads it.
// A failed reload leaves the previous copy in place but returns the error.
func (c *EventCache) Events(ctx context.Context) ([]model.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.valid && now.Sub(c.fetchedAt) < c.ttl {
		return append([]model.Event(nil), c.events...), nil
	}

	events, err := c.src.Events(ctx)
	if err != nil {
		return nil, err
	}
	c.events = events
	c.fetchedAt = now
	c.valid = true
	return append([]model.Event(nil), events...), nil
}

func (c *EventCache) EntryHistory(ctx context.Context, entryID int) (*model.EntryHistory, error) {
	return c.src.EntryHistory(ctx, entryID)
}

// Invalidate forces the next Events call to reload.
func (c *EventCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
