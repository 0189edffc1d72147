package ledger

import (
	"errors"
	"fmt"

	"TransferSentinel/internal/model"
)

const (
	// MaxFreeTransfers is the most free transfers a manager can bank.
	MaxFreeTransfers = 5
	// InitialFreeTransfers is the balance entering gameweek 2.
	InitialFreeTransfers = 1
	// ResetGameweek tops every manager up to MaxFreeTransfers before its transfers apply.
	ResetGameweek = 16
	// PointsPerPaidTransfer is the deduction for each transfer beyond the free allotment.
	PointsPerPaidTransfer = model.PointsPerPaidTransfer
)

var (
	ErrInvalidGameweek  = errors.New("invalid gameweek")
	ErrMissingGameweek  = errors.New("missing gameweek record")
	ErrUnorderedHistory = errors.New("history not in strictly ascending gameweek order")
	ErrInvalidRecord    = errors.New("invalid gameweek record")
	ErrInconsistentCost = errors.New("transfer cost exceeds transfers made")
)

// Step is the ledger movement for a single processed gameweek.
type Step struct {
	Event     int            `json:"event"`
	Opening   int            `json:"opening"`
	Used      int            `json:"used"`
	Remaining int            `json:"remaining"`
	Closing   int            `json:"closing"`
	Chip      model.ChipKind `json:"chip,omitempty"`
	Reset     bool           `json:"reset,omitempty"`
}

// Trace is the full replay up to and including the requested gameweek.
// Result is the balance entering the following gameweek.
type Trace struct {
	CurrentGameweek int    `json:"current_gameweek"`
	Steps           []Step `json:"steps"`
	Result          int    `json:"result"`
}

// ComputeFreeTransfers returns the free transfers available for the gameweek after
// currentGameweek, assuming currentGameweek has finished.
func ComputeFreeTransfers(history []model.GameweekRecord, chips []model.ChipActivation, currentGameweek int) (int, error) {
	trace, err := Replay(history, chips, currentGameweek)
	if err != nil {
		return 0, err
	}
	return trace.Result, nil
}

// Replay folds over history in gameweek order and records every balance movement.
// Records after currentGameweek are ignored.
func Replay(history []model.GameweekRecord, chips []model.ChipActivation, currentGameweek int) (*Trace, error) {
	if err := validate(history, currentGameweek); err != nil {
		return nil, err
	}

	chipAt := suspendingChips(chips, currentGameweek)
	trace := &Trace{CurrentGameweek: currentGameweek}
	available := InitialFreeTransfers

	for _, rec := range history {
		if rec.Event > currentGameweek {
			break
		}
		// GW1 has unlimited transfers.
		if rec.Event == 1 {
			continue
		}

		step := Step{Event: rec.Event}
		if rec.Event == ResetGameweek {
			available = MaxFreeTransfers
			step.Reset = true
		}
		step.Opening = available

		if chip, ok := chipAt[rec.Event]; ok {
			step.Chip = chip
			step.Remaining = available
		} else {
			step.Used = rec.TransfersMade - rec.PaidTransfers()
			if step.Used < 0 {
				return nil, fmt.Errorf("gameweek %d: %d transfers, %d points: %w",
					rec.Event, rec.TransfersMade, rec.TransferPointsCost, ErrInconsistentCost)
			}
			step.Remaining = max(0, available-step.Used)
		}

		available = min(step.Remaining+1, MaxFreeTransfers)
		step.Closing = available
		trace.Steps = append(trace.Steps, step)
	}

	trace.Result = available
	return trace, nil
}

// validate enforces the input contract: every gameweek 1..currentGameweek is present,
// in strictly ascending order, with well-formed counts.
func validate(history []model.GameweekRecord, currentGameweek int) error {
	if currentGameweek < 1 {
		return fmt.Errorf("current gameweek %d: %w", currentGameweek, ErrInvalidGameweek)
	}

	expected := 1
	prev := 0
	for _, rec := range history {
		if rec.Event < 1 {
			return fmt.Errorf("record event %d: %w", rec.Event, ErrInvalidGameweek)
		}
		if rec.Event <= prev {
			return fmt.Errorf("gameweek %d after %d: %w", rec.Event, prev, ErrUnorderedHistory)
		}
		prev = rec.Event
		if rec.Event > currentGameweek {
			continue
		}
		if rec.Event != expected {
			return fmt.Errorf("gameweek %d: %w", expected, ErrMissingGameweek)
		}
		if rec.TransfersMade < 0 || rec.TransferPointsCost < 0 || rec.TransferPointsCost%PointsPerPaidTransfer != 0 {
			return fmt.Errorf("gameweek %d: transfers=%d cost=%d: %w",
				rec.Event, rec.TransfersMade, rec.TransferPointsCost, ErrInvalidRecord)
		}
		expected++
	}
	if expected <= currentGameweek {
		return fmt.Errorf("gameweek %d: %w", expected, ErrMissingGameweek)
	}
	return nil
}

// suspendingChips maps gameweek to the wildcard or free hit played in it.
func suspendingChips(chips []model.ChipActivation, currentGameweek int) map[int]model.ChipKind {
	out := make(map[int]model.ChipKind)
	for _, c := range chips {
		if c.Event < 1 || c.Event > currentGameweek || !c.Kind.SuspendsTransferCost() {
			continue
		}
		if _, ok := out[c.Event]; !ok {
			out[c.Event] = c.Kind
		}
	}
	return out
}
