package game_test

import (
	"testing"

	"holdem-service/internal/service/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidePotsWithFoldedShortStack(t *testing.T) {
	// Commitments 100/100/50/200 with the 50 folding. The folder's
	// chips stay in the pots; only eligibility drops.
	ledger := game.NewPotLedger()
	ledger.Commit(0, 100)
	ledger.Commit(1, 100)
	ledger.Commit(2, 50)
	ledger.Commit(3, 200)
	ledger.MarkFolded(2)

	pots := ledger.Build()
	require.Len(t, pots, 3)

	assert.Equal(t, int64(200), pots[0].Amount)
	assert.Equal(t, []int{0, 1, 3}, pots[0].Eligible)

	assert.Equal(t, int64(150), pots[1].Amount)
	assert.Equal(t, []int{0, 1, 3}, pots[1].Eligible)

	assert.Equal(t, int64(100), pots[2].Amount)
	assert.Equal(t, []int{3}, pots[2].Eligible)

	var sum int64
	for _, p := range pots {
		sum += p.Amount
	}
	assert.Equal(t, ledger.Total(), sum, "pot slices must conserve every committed chip")
}

func TestEqualCommitmentsSinglePot(t *testing.T) {
	ledger := game.NewPotLedger()
	ledger.Commit(0, 50)
	ledger.Commit(1, 50)
	ledger.Commit(2, 50)

	pots := ledger.Build()
	require.Len(t, pots, 1)
	assert.Equal(t, int64(150), pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].Eligible)
}

func TestWinnerlessSliceMergesBack(t *testing.T) {
	// The deep stack folded, so its top slice has nobody eligible and
	// falls back to the previous pot.
	ledger := game.NewPotLedger()
	ledger.Commit(0, 100)
	ledger.Commit(1, 100)
	ledger.Commit(2, 200)
	ledger.MarkFolded(2)

	pots := ledger.Build()
	require.Len(t, pots, 1)
	assert.Equal(t, int64(400), pots[0].Amount)
	assert.Equal(t, []int{0, 1}, pots[0].Eligible)
}

func TestAwardSplitsPerPot(t *testing.T) {
	ledger := game.NewPotLedger()
	ledger.Commit(0, 100)
	ledger.Commit(1, 100)
	ledger.Commit(2, 50)
	ledger.Commit(3, 200)
	ledger.MarkFolded(2)

	values := map[int]game.HandValue{0: 500, 1: 900, 3: 700}
	seatOrder := []int{1, 3, 0} // clockwise from the button

	awards, err := ledger.Award(values, seatOrder)
	require.NoError(t, err)
	require.Len(t, awards, 3)

	// Seat 1 holds the best hand in both contested pots.
	assert.Equal(t, []int{1}, awards[0].Winners)
	assert.Equal(t, int64(200), awards[0].Amount)
	assert.Equal(t, []int{1}, awards[1].Winners)
	assert.Equal(t, int64(150), awards[1].Amount)

	// Seat 3's uncalled excess comes back to seat 3 alone.
	assert.Equal(t, []int{3}, awards[2].Winners)
	assert.Equal(t, int64(100), awards[2].Amount)
}

func TestAwardTieSplitsAndRemainderChip(t *testing.T) {
	ledger := game.NewPotLedger()
	ledger.Commit(0, 67)
	ledger.Commit(1, 67)
	ledger.Commit(2, 67)

	values := map[int]game.HandValue{0: 800, 1: 800, 2: 100}
	seatOrder := []int{2, 0, 1}

	awards, err := ledger.Award(values, seatOrder)
	require.NoError(t, err)
	require.Len(t, awards, 1)

	// Winners listed clockwise from the button; seat 0 comes before 1.
	assert.Equal(t, []int{0, 1}, awards[0].Winners)

	shares := awards[0].Shares()
	assert.Equal(t, []int64{101, 100}, shares, "odd chip goes to the first winner clockwise")

	var sum int64
	for _, s := range shares {
		sum += s
	}
	assert.Equal(t, awards[0].Amount, sum)
}
