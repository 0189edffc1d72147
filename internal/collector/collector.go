package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"TransferSentinel/internal/ledger"
	"TransferSentinel/internal/model"
)

const (
	ReasonSeasonNotStarted   = "season not started"
	ReasonGameweekInProgress = "gameweek in progress"
)

// MockSource returns fixed data for development and testing.
type MockSource struct {
	Histories  map[int]*model.EntryHistory
	EventList  []model.Event
	EventsErr  error
	HistoryErr error

	mu         sync.Mutex
	eventCalls int
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Events(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	m.eventCalls++
	m.mu.Unlock()
	if m.EventsErr != nil {
		return nil, m.EventsErr
	}
	return m.EventList, nil
}

func (m *MockSource) EntryHistory(_ context.Context, entryID int) (*model.EntryHistory, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	h, ok := m.Histories[entryID]
	if !ok {
		return nil, fmt.Errorf("entry %d: %w", entryID, ErrEntryNotFound)
	}
	return h, nil
}

// EventCalls reports how many times Events was called.
func (m *MockSource) EventCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventCalls
}

// Collector gathers a manager's season data and runs the ledger over it.
type Collector struct {
	Source Source
}

// NewCollector creates a new Collector.
func NewCollector(src Source) *Collector {
	return &Collector{Source: src}
}

// Status answers how many free transfers the manager has for the next gameweek.
// It refuses to compute a number while the current gameweek is unfinished and
// returns an indeterminate status instead.
func (c *Collector) Status(ctx context.Context, entryID int) (*model.TransferStatus, error) {
	events, err := c.Source.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w: %w", ErrSourceUnavailable, err)
	}

	status := &model.TransferStatus{EntryID: entryID}
	current, next, ok := CurrentGameweek(events)
	if !ok {
		status.NextGameweek = next.ID
		status.Reason = ReasonSeasonNotStarted
		return status, nil
	}

	status.CurrentGameweek = current.ID
	status.Finished = current.Finished
	status.NextGameweek = current.ID + 1
	if next.ID != 0 {
		status.NextGameweek = next.ID
	}

	history, err := c.history(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if rec, ok := history.Record(current.ID); ok {
		status.LastGameweek = &rec
	}
	status.ActiveChip = history.ChipAt(current.ID)

	if !current.Finished {
		status.Reason = ReasonGameweekInProgress
		return status, nil
	}

	ft, err := ledger.ComputeFreeTransfers(history.Current, history.Chips, current.ID)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", entryID, err)
	}
	status.FreeTransfers = ft
	status.Determinate = true
	return status, nil
}

// Replay returns the full ledger trace up to the finished current gameweek.
func (c *Collector) Replay(ctx context.Context, entryID int) (*ledger.Trace, error) {
	events, err := c.Source.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w: %w", ErrSourceUnavailable, err)
	}
	current, _, ok := CurrentGameweek(events)
	if !ok {
		return nil, fmt.Errorf("%s: %w", ReasonSeasonNotStarted, ErrIndeterminate)
	}
	if !current.Finished {
		return nil, fmt.Errorf("gameweek %d: %s: %w", current.ID, ReasonGameweekInProgress, ErrIndeterminate)
	}

	history, err := c.history(ctx, entryID)
	if err != nil {
		return nil, err
	}
	trace, err := ledger.Replay(history.Current, history.Chips, current.ID)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", entryID, err)
	}
	return trace, nil
}

func (c *Collector) history(ctx context.Context, entryID int) (*model.EntryHistory, error) {
	h, err := c.Source.EntryHistory(ctx, entryID)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch history: %w: %w", ErrSourceUnavailable, err)
	}
	return h, nil
}
