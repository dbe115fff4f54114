package game

import (
	"fmt"
	"sort"

	appErr "holdem-service/pkg/errors"
)

// PotLedger accumulates each seat's chips committed during one round
// and slices them into a main pot plus side pots at settlement time.
// All arithmetic is exact integer chips.
type PotLedger struct {
	committed map[int]int64
	folded    map[int]bool
}

func NewPotLedger() *PotLedger {
	return &PotLedger{
		committed: make(map[int]int64),
		folded:    make(map[int]bool),
	}
}

// Commit records amount chips put in by seat. The caller has already
// debited the player's stack.
func (l *PotLedger) Commit(seat int, amount int64) {
	if amount <= 0 {
		return
	}
	l.committed[seat] += amount
}

// MarkFolded excludes seat from pot eligibility. Its chips stay in.
func (l *PotLedger) MarkFolded(seat int) {
	l.folded[seat] = true
}

func (l *PotLedger) Committed(seat int) int64 {
	return l.committed[seat]
}

// Total is the sum of every commitment this round.
func (l *PotLedger) Total() int64 {
	var sum int64
	for _, v := range l.committed {
		sum += v
	}
	return sum
}

// Pot is one slice of the round's chips with the seats allowed to win it.
type Pot struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"` // ascending seat indexes, folded excluded
}

// Build slices commitments into pots, one per distinct commitment
// level ascending. Each level's pot holds (level - previous) chips from
// every seat committed at least that far; folded seats pay in but are
// never eligible. Pot amounts always sum to Total().
func (l *PotLedger) Build() []Pot {
	levels := make([]int64, 0, len(l.committed))
	seen := make(map[int64]bool)
	for _, v := range l.committed {
		if v > 0 && !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]Pot, 0, len(levels))
	prev := int64(0)
	for _, level := range levels {
		slice := level - prev
		var amount int64
		eligible := make([]int, 0, len(l.committed))
		for seat, v := range l.committed {
			if v >= level {
				amount += slice
				if !l.folded[seat] {
					eligible = append(eligible, seat)
				}
			}
		}
		sort.Ints(eligible)
		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
		prev = level
	}

	// Merge a pot nobody can win (everyone at its level folded) into
	// the previous pot's winners; with at least one live player this
	// only happens for trailing slices, which fall back to the last
	// pot with eligibility.
	merged := pots[:0]
	for _, p := range pots {
		if len(p.Eligible) == 0 && len(merged) > 0 {
			merged[len(merged)-1].Amount += p.Amount
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// PotAward is the settlement result for one pot.
type PotAward struct {
	Amount    int64     `json:"amount"`
	Winners   []int     `json:"winners"` // clockwise from the button
	BestValue HandValue `json:"bestValue"`
}

// Award splits every pot among its eligible seats holding the maximum
// hand value. Equal values split evenly; a remainder chip goes to the
// first winner in seatOrder (clockwise from the dealer button). Pots
// appear in creation order, ascending by commitment level.
func (l *PotLedger) Award(values map[int]HandValue, seatOrder []int) ([]PotAward, error) {
	pots := l.Build()

	var potSum int64
	for _, p := range pots {
		potSum += p.Amount
	}
	if potSum != l.Total() {
		return nil, fmt.Errorf("%w: pots %d, committed %d", appErr.ErrPotMismatch, potSum, l.Total())
	}

	awards := make([]PotAward, 0, len(pots))
	for _, pot := range pots {
		best := HandValue(-1)
		for _, seat := range pot.Eligible {
			if v, ok := values[seat]; ok && v > best {
				best = v
			}
		}
		winners := make([]int, 0, len(pot.Eligible))
		for _, seat := range seatOrder {
			if !contains(pot.Eligible, seat) {
				continue
			}
			if v, ok := values[seat]; ok && v == best {
				winners = append(winners, seat)
			}
		}
		if len(winners) == 0 {
			return nil, fmt.Errorf("%w: pot of %d has no winner", appErr.ErrPotMismatch, pot.Amount)
		}
		awards = append(awards, PotAward{Amount: pot.Amount, Winners: winners, BestValue: best})
	}
	return awards, nil
}

// Shares splits the pot across its winners. The first winner in
// clockwise order absorbs any remainder chip.
func (a PotAward) Shares() []int64 {
	n := int64(len(a.Winners))
	shares := make([]int64, len(a.Winners))
	base := a.Amount / n
	rem := a.Amount % n
	for i := range shares {
		shares[i] = base
	}
	shares[0] += rem
	return shares
}

func contains(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}
