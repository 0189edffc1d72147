package model

// TransferStatus is the answer for one manager after the current gameweek.
// When Determinate is false, FreeTransfers is meaningless and Reason says why.
type TransferStatus struct {
	EntryID         int             `json:"entry_id"`
	CurrentGameweek int             `json:"current_gameweek"`
	NextGameweek    int             `json:"next_gameweek"`
	Finished        bool            `json:"finished"`
	Determinate     bool            `json:"determinate"`
	FreeTransfers   int             `json:"free_transfers,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	LastGameweek    *GameweekRecord `json:"last_gameweek,omitempty"`
	ActiveChip      ChipKind        `json:"active_chip,omitempty"`
}
