package model

// ChipKind uses the provider's wire names.
type ChipKind string

const (
	ChipWildcard      ChipKind = "wildcard"
	ChipFreeHit       ChipKind = "freehit"
	ChipBenchBoost    ChipKind = "bboost"
	ChipTripleCaptain ChipKind = "3xc"
)

// SuspendsTransferCost reports whether the chip makes every transfer in its gameweek free.
func (k ChipKind) SuspendsTransferCost() bool {
	return k == ChipWildcard || k == ChipFreeHit
}

// ChipActivation records a chip played in a gameweek.
type ChipActivation struct {
	Event int      `json:"event"`
	Kind  ChipKind `json:"name"`
}
