package game

import (
	"fmt"
	"sort"
)

type HandCategory int

const (
	HighCard HandCategory = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var categoryNames = map[HandCategory]string{
	HighCard:      "high card",
	Pair:          "pair",
	TwoPair:       "two pair",
	ThreeOfAKind:  "three of a kind",
	Straight:      "straight",
	Flush:         "flush",
	FullHouse:     "full house",
	FourOfAKind:   "four of a kind",
	StraightFlush: "straight flush",
}

func (c HandCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// HandValue is a totally ordered hand strength: the category sits in
// the high bits and five tie-break ranks follow in 4-bit groups, so a
// plain integer comparison decides any two hands and equal values are
// true ties.
type HandValue int64

func (v HandValue) Category() HandCategory {
	return HandCategory(v >> 20)
}

func packValue(cat HandCategory, ranks ...int) HandValue {
	v := int64(cat) << 20
	shift := 16
	for _, r := range ranks {
		v |= int64(r) << shift
		shift -= 4
		if shift < 0 {
			break
		}
	}
	return HandValue(v)
}

// EvaluateHand ranks the best 5-card hand available in 5 to 7 cards.
// It is a pure function: the same card multiset always yields the same
// value.
func EvaluateHand(cards []Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluate needs 5 to 7 cards, got %d", len(cards))
	}
	best := HandValue(0)
	forEachFive(cards, func(five []Card) {
		if v := evaluateFive(five); v > best {
			best = v
		}
	})
	return best, nil
}

// forEachFive visits every 5-card subset (at most C(7,5)=21 of them).
func forEachFive(cards []Card, visit func([]Card)) {
	n := len(cards)
	if n == 5 {
		visit(cards)
		return
	}
	five := make([]Card, 5)
	var rec func(start, filled int)
	rec = func(start, filled int) {
		if filled == 5 {
			visit(five)
			return
		}
		for i := start; i <= n-(5-filled); i++ {
			five[filled] = cards[i]
			rec(i+1, filled+1)
		}
	}
	rec(0, 0)
}

func evaluateFive(cards []Card) HandValue {
	ranks := make([]int, 5)
	suitCount := make(map[int]int, 4)
	rankCount := make(map[int]int, 5)
	for i, c := range cards {
		ranks[i] = c.Rank
		suitCount[c.Suit]++
		rankCount[c.Rank]++
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	flush := len(suitCount) == 1
	straightHigh := straightHighCard(ranks)

	if flush && straightHigh > 0 {
		return packValue(StraightFlush, straightHigh)
	}

	// Distinct ranks ordered by count desc, then rank desc.
	type group struct {
		rank  int
		count int
	}
	groups := make([]group, 0, len(rankCount))
	for r, n := range rankCount {
		groups = append(groups, group{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	switch {
	case groups[0].count == 4:
		return packValue(FourOfAKind, groups[0].rank, groups[1].rank)
	case groups[0].count == 3 && groups[1].count == 2:
		return packValue(FullHouse, groups[0].rank, groups[1].rank)
	case flush:
		return packValue(Flush, ranks...)
	case straightHigh > 0:
		return packValue(Straight, straightHigh)
	case groups[0].count == 3:
		return packValue(ThreeOfAKind, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2 && groups[1].count == 2:
		return packValue(TwoPair, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2:
		return packValue(Pair, groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank)
	default:
		return packValue(HighCard, ranks...)
	}
}

// straightHighCard returns the high card of a straight formed by the
// five descending ranks, or 0. The wheel (A-2-3-4-5) counts with high
// card 5, ranking it below every other straight.
func straightHighCard(desc []int) int {
	run := true
	for i := 0; i < 4; i++ {
		if desc[i]-desc[i+1] != 1 {
			run = false
			break
		}
	}
	if run {
		return desc[0]
	}
	if desc[0] == RankAce && desc[1] == 5 && desc[2] == 4 && desc[3] == 3 && desc[4] == 2 {
		return 5
	}
	return 0
}
