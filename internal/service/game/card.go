package game

import (
	"fmt"
	"math/rand"

	appErr "holdem-service/pkg/errors"
)

// Card is an immutable rank/suit pair. Ranks run 2..14 with 14 as the
// ace; suits are 0..3 (clubs, diamonds, hearts, spades).
type Card struct {
	Rank int `json:"rank"`
	Suit int `json:"suit"`
}

const (
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13
	RankAce   = 14
)

var suitSymbols = []string{"♣", "♦", "♥", "♠"}

func (c Card) String() string {
	rankStr := ""
	switch c.Rank {
	case RankJack:
		rankStr = "J"
	case RankQueen:
		rankStr = "Q"
	case RankKing:
		rankStr = "K"
	case RankAce:
		rankStr = "A"
	default:
		rankStr = fmt.Sprintf("%d", c.Rank)
	}
	suitStr := "?"
	if c.Suit >= 0 && c.Suit < len(suitSymbols) {
		suitStr = suitSymbols[c.Suit]
	}
	return rankStr + suitStr
}

// Deck deals 52 unique cards without replacement. The randomness
// source is injected so tests can fix the permutation.
type Deck struct {
	cards []Card
	rnd   *rand.Rand
}

func NewDeck(rnd *rand.Rand) *Deck {
	d := &Deck{rnd: rnd}
	d.Shuffle()
	return d
}

// Shuffle resets the deck to a fresh random permutation of all 52 cards.
func (d *Deck) Shuffle() {
	cards := make([]Card, 0, 52)
	for s := 0; s < 4; s++ {
		for r := 2; r <= RankAce; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	d.rnd.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	d.cards = cards
}

// Draw removes and returns the next n cards. Underflow means the round
// sequencing is broken and is reported as ErrDeckExhausted; with ten
// seats a full round consumes at most 25 cards, so this is never hit
// under correct use.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, appErr.ErrDeckExhausted
	}
	out := d.cards[:n]
	d.cards = d.cards[n:]
	return out, nil
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}
