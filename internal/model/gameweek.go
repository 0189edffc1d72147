package model

import "time"

// PointsPerPaidTransfer is the deduction for each transfer beyond the free allotment.
const PointsPerPaidTransfer = 4

// GameweekRecord is one completed gameweek's transfer activity as reported by the provider.
type GameweekRecord struct {
	Event              int `json:"event"`
	TransfersMade      int `json:"event_transfers"`
	TransferPointsCost int `json:"event_transfers_cost"`
}

// PaidTransfers returns how many of the gameweek's transfers were charged.
func (r GameweekRecord) PaidTransfers() int {
	return r.TransferPointsCost / PointsPerPaidTransfer
}

// Event is one entry of the season calendar.
type Event struct {
	ID        int       `json:"id"`
	Finished  bool      `json:"finished"`
	IsCurrent bool      `json:"is_current"`
	IsNext    bool      `json:"is_next"`
	Deadline  time.Time `json:"deadline_time"`
}

// EntryHistory is a manager's season history: per-gameweek rows plus chip activations.
type EntryHistory struct {
	EntryID int              `json:"entry_id"`
	Current []GameweekRecord `json:"current"`
	Chips   []ChipActivation `json:"chips"`
}

// Record returns the row for the given gameweek, if present.
func (h *EntryHistory) Record(event int) (GameweekRecord, bool) {
	for _, r := range h.Current {
		if r.Event == event {
			return r, true
		}
	}
	return GameweekRecord{}, false
}

// ChipAt returns the first chip activated at the given gameweek, or "" if none.
func (h *EntryHistory) ChipAt(event int) ChipKind {
	for _, c := range h.Chips {
		if c.Event == event {
			return c.Kind
		}
	}
	return ""
}
