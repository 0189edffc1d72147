package collector

import (
	"context"
	"errors"

	"TransferSentinel/internal/model"
)

var (
	ErrSourceUnavailable = errors.New("data source unavailable")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrIndeterminate     = errors.New("free transfers cannot be determined yet")
)

// Source is a read-only view of the provider's season data.
type Source interface {
	EntryHistory(ctx context.Context, entryID int) (*model.EntryHistory, error)
	Events(ctx context.Context) ([]model.Event, error)
	Name() string
}

// CurrentGameweek picks the current and next events from the season calendar.
// ok is false before the season starts.
func CurrentGameweek(events []model.Event) (current, next model.Event, ok bool) {
	for _, e := range events {
		if e.IsCurrent {
			current = e
			ok = true
		}
		if e.IsNext {
			next = e
		}
	}
	return current, next, ok
}
