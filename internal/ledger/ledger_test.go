package ledger

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransferSentinel/internal/model"
)

// season builds contiguous records for gameweeks 1..n with no transfers,
// then applies the given overrides keyed by gameweek.
func season(n int, overrides map[int]model.GameweekRecord) []model.GameweekRecord {
	out := make([]model.GameweekRecord, n)
	for i := range out {
		out[i] = model.GameweekRecord{Event: i + 1}
		if o, ok := overrides[i+1]; ok {
			o.Event = i + 1
			out[i] = o
		}
	}
	return out
}

func transfers(made, cost int) model.GameweekRecord {
	return model.GameweekRecord{TransfersMade: made, TransferPointsCost: cost}
}

func stepFor(t *testing.T, trace *Trace, event int) Step {
	t.Helper()
	for _, s := range trace.Steps {
		if s.Event == event {
			return s
		}
	}
	t.Fatalf("no step for gameweek %d", event)
	return Step{}
}

func TestComputeFreeTransfers_Scenarios(t *testing.T) {
	oneEachWeek := map[int]model.GameweekRecord{}
	for gw := 2; gw <= 21; gw++ {
		oneEachWeek[gw] = transfers(1, 0)
	}
	oneEachWeek[16] = transfers(5, 0)

	tests := []struct {
		name     string
		history  []model.GameweekRecord
		chips    []model.ChipActivation
		current  int
		expected int
	}{
		{
			name:     "gameweek 1 only seeds one transfer",
			history:  season(1, nil),
			current:  1,
			expected: 1,
		},
		{
			name:     "banking with no transfers caps at five",
			history:  season(21, nil),
			current:  21,
			expected: 5,
		},
		{
			name:     "two used in gw17 then banked back to cap",
			history:  season(21, map[int]model.GameweekRecord{17: transfers(2, 0)}),
			current:  21,
			expected: 5,
		},
		{
			name:     "two transfers in gw21 of an idle season leaves four",
			history:  season(21, map[int]model.GameweekRecord{21: transfers(2, 0)}),
			current:  21,
			expected: 4,
		},
		{
			name:     "one transfer in gw20 and gw21 stays at the cap of five",
			history:  season(21, map[int]model.GameweekRecord{20: transfers(1, 0), 21: transfers(1, 0)}),
			current:  21,
			expected: 5,
		},
		{
			name: "two free transfers used after banking two",
			history: season(21, map[int]model.GameweekRecord{
				16: transfers(5, 0),
				17: transfers(1, 0),
				18: transfers(1, 0),
				21: transfers(2, 0),
			}),
			current:  21,
			expected: 2,
		},
		{
			name:     "one transfer every week holds at one",
			history:  season(21, oneEachWeek),
			current:  21,
			expected: 1,
		},
		{
			name:     "paid transfers do not consume banked transfers",
			history:  season(2, map[int]model.GameweekRecord{2: transfers(3, 8)}),
			current:  2,
			expected: 1,
		},
		{
			name:     "records after the current gameweek are ignored",
			history:  season(6, map[int]model.GameweekRecord{5: transfers(4, 0), 6: transfers(4, 0)}),
			current:  4,
			expected: 4,
		},
		{
			name:     "gw16 transfers are applied against a balance of five",
			history:  season(16, map[int]model.GameweekRecord{15: transfers(4, 0), 16: transfers(3, 0)}),
			current:  16,
			expected: 3,
		},
		{
			name:     "bench boost does not suspend consumption",
			history:  season(10, map[int]model.GameweekRecord{9: transfers(5, 0), 10: transfers(9, 32)}),
			chips:    []model.ChipActivation{{Event: 10, Kind: model.ChipBenchBoost}},
			current:  10,
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeFreeTransfers(tt.history, tt.chips, tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReplay_TransfersAfterReset(t *testing.T) {
	trace, err := Replay(season(21, map[int]model.GameweekRecord{17: transfers(2, 0)}), nil, 21)
	require.NoError(t, err)

	gw17 := stepFor(t, trace, 17)
	assert.Equal(t, 5, gw17.Opening)
	assert.Equal(t, 2, gw17.Used)
	assert.Equal(t, 4, gw17.Closing)
	assert.Equal(t, 5, stepFor(t, trace, 18).Closing)
}

func TestReplay_ResetLaw(t *testing.T) {
	trajectories := map[string]map[int]model.GameweekRecord{
		"idle":     nil,
		"busy":     {3: transfers(2, 4), 7: transfers(5, 12), 12: transfers(1, 0), 15: transfers(3, 0)},
		"drained":  {5: transfers(5, 0), 10: transfers(5, 0), 15: transfers(5, 0)},
		"all paid": {2: transfers(6, 20), 3: transfers(4, 12), 14: transfers(2, 8)},
	}
	for name, overrides := range trajectories {
		t.Run(name, func(t *testing.T) {
			trace, err := Replay(season(17, overrides), nil, 17)
			require.NoError(t, err)

			gw16 := stepFor(t, trace, 16)
			assert.True(t, gw16.Reset)
			assert.Equal(t, 5, gw16.Opening)
			assert.Equal(t, 5, gw16.Closing, "balance entering gw17")
			assert.Equal(t, 5, trace.Result)
		})
	}
}

func TestReplay_ChipPreservesBalance(t *testing.T) {
	history := season(10, map[int]model.GameweekRecord{
		9:  transfers(5, 0),
		10: transfers(9, 0),
	})

	for _, kind := range []model.ChipKind{model.ChipWildcard, model.ChipFreeHit} {
		t.Run(string(kind), func(t *testing.T) {
			trace, err := Replay(history, []model.ChipActivation{{Event: 10, Kind: kind}}, 10)
			require.NoError(t, err)

			gw10 := stepFor(t, trace, 10)
			assert.Equal(t, kind, gw10.Chip)
			assert.Equal(t, 1, gw10.Opening)
			assert.Equal(t, 0, gw10.Used)
			assert.Equal(t, 1, gw10.Remaining)
			assert.Equal(t, 2, trace.Result)
		})
	}
}

func TestReplay_ChipIgnoresInconsistentCost(t *testing.T) {
	history := season(4, map[int]model.GameweekRecord{4: transfers(1, 8)})
	chips := []model.ChipActivation{{Event: 4, Kind: model.ChipFreeHit}}

	got, err := ComputeFreeTransfers(history, chips, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestReplay_ChipsWithoutEffectIgnored(t *testing.T) {
	history := season(6, map[int]model.GameweekRecord{3: transfers(2, 0)})
	chips := []model.ChipActivation{
		{Event: 1, Kind: model.ChipWildcard},
		{Event: 9, Kind: model.ChipWildcard},
		{Event: 0, Kind: model.ChipFreeHit},
	}

	withChips, err := ComputeFreeTransfers(history, chips, 6)
	require.NoError(t, err)
	without, err := ComputeFreeTransfers(history, nil, 6)
	require.NoError(t, err)
	assert.Equal(t, without, withChips)
}

func TestComputeFreeTransfers_ContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		history []model.GameweekRecord
		current int
		want    error
	}{
		{"zero current gameweek", season(3, nil), 0, ErrInvalidGameweek},
		{"negative record event", []model.GameweekRecord{{Event: -1}, {Event: 1}}, 1, ErrInvalidGameweek},
		{"empty history", nil, 1, ErrMissingGameweek},
		{"missing gameweek 1", []model.GameweekRecord{{Event: 2}, {Event: 3}}, 3, ErrMissingGameweek},
		{"gap mid season", []model.GameweekRecord{{Event: 1}, {Event: 2}, {Event: 4}}, 4, ErrMissingGameweek},
		{"history ends early", season(3, nil), 5, ErrMissingGameweek},
		{"duplicate gameweek", []model.GameweekRecord{{Event: 1}, {Event: 2}, {Event: 2}}, 2, ErrUnorderedHistory},
		{"out of order after current", []model.GameweekRecord{{Event: 1}, {Event: 2}, {Event: 4}, {Event: 3}}, 2, ErrUnorderedHistory},
		{"cost not a multiple of four", season(3, map[int]model.GameweekRecord{2: transfers(2, 3)}), 3, ErrInvalidRecord},
		{"negative transfers", season(3, map[int]model.GameweekRecord{2: transfers(-1, 0)}), 3, ErrInvalidRecord},
		{"negative cost", season(3, map[int]model.GameweekRecord{2: transfers(1, -4)}), 3, ErrInvalidRecord},
		{"cost exceeds transfers", season(3, map[int]model.GameweekRecord{3: transfers(1, 8)}), 3, ErrInconsistentCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeFreeTransfers(tt.history, nil, tt.current)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReplay_InvalidRecordsAfterCurrentAreNotChecked(t *testing.T) {
	history := season(5, map[int]model.GameweekRecord{5: transfers(1, 8)})

	got, err := ComputeFreeTransfers(history, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

// randomSeason generates a well-formed season with random transfers, costs and chips.
func randomSeason(r *rand.Rand, n int) ([]model.GameweekRecord, []model.ChipActivation) {
	history := make([]model.GameweekRecord, n)
	var chips []model.ChipActivation
	kinds := []model.ChipKind{model.ChipWildcard, model.ChipFreeHit, model.ChipBenchBoost, model.ChipTripleCaptain}
	for i := range history {
		made := r.IntN(7)
		paid := 0
		if made > 0 {
			paid = r.IntN(made + 1)
		}
		history[i] = model.GameweekRecord{Event: i + 1, TransfersMade: made, TransferPointsCost: paid * PointsPerPaidTransfer}
		if r.IntN(8) == 0 {
			chips = append(chips, model.ChipActivation{Event: i + 1, Kind: kinds[r.IntN(len(kinds))]})
		}
	}
	return history, chips
}

func TestReplay_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(38, 2025))

	for i := 0; i < 500; i++ {
		n := 1 + r.IntN(38)
		history, chips := randomSeason(r, n)
		current := 1 + r.IntN(n)

		trace, err := Replay(history, chips, current)
		require.NoError(t, err)

		again, err := Replay(history, chips, current)
		require.NoError(t, err)
		require.Equal(t, trace, again, "replay must be deterministic")

		require.GreaterOrEqual(t, trace.Result, 0)
		require.LessOrEqual(t, trace.Result, MaxFreeTransfers)
		require.Len(t, trace.Steps, current-1)

		for _, s := range trace.Steps {
			rec := history[s.Event-1]
			require.GreaterOrEqual(t, s.Closing, 0)
			require.LessOrEqual(t, s.Closing, MaxFreeTransfers)
			require.Equal(t, min(s.Remaining+1, MaxFreeTransfers), s.Closing)

			if s.Chip != "" {
				require.True(t, s.Chip.SuspendsTransferCost())
				require.GreaterOrEqual(t, s.Closing, s.Opening, "chip gameweek %d lowered the balance", s.Event)
				continue
			}
			require.Equal(t, rec.TransfersMade-rec.TransferPointsCost/PointsPerPaidTransfer, s.Used)
			require.Equal(t, max(0, s.Opening-s.Used), s.Remaining)
			if rec.TransfersMade == 0 {
				require.Equal(t, min(s.Opening+1, MaxFreeTransfers), s.Closing)
			}
		}
	}
}

func TestReplay_InactionIncreasesUntilCap(t *testing.T) {
	trace, err := Replay(season(9, map[int]model.GameweekRecord{3: transfers(2, 0)}), nil, 9)
	require.NoError(t, err)

	want := map[int]int{3: 1, 4: 2, 5: 3, 6: 4, 7: 5, 8: 5, 9: 5}
	for gw, closing := range want {
		assert.Equal(t, closing, stepFor(t, trace, gw).Closing, "gameweek %d", gw)
	}
}
