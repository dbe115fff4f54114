package game

// PlayerStatus tracks a seated player's standing within the table.
type PlayerStatus string

const (
	StatusActive       PlayerStatus = "active"
	StatusFolded       PlayerStatus = "folded"
	StatusAllIn        PlayerStatus = "all_in"
	StatusSittingOut   PlayerStatus = "sitting_out"
	StatusDisconnected PlayerStatus = "disconnected"
)

// Player is one occupied seat. Seat indexes are stable from join until
// the seat is vacated and are never reused while occupied.
type Player struct {
	Seat     int
	Username string
	Stack    int64
	Status   PlayerStatus

	// Per-round state, reset when a new hand is dealt.
	StreetBet int64 // committed on the current street
	RoundBet  int64 // cumulative commitment this round
	holeCards []Card
	inRound   bool

	timeouts int  // consecutive expired turns
	leaving  bool // gone mid-hand, seat vacates once the round settles
}

// InHand reports whether the player still holds live cards this round.
func (p *Player) InHand() bool {
	return p.inRound && (p.Status == StatusActive || p.Status == StatusAllIn)
}

// CanAct reports whether the player has a decision left this street.
func (p *Player) CanAct() bool {
	return p.inRound && p.Status == StatusActive
}

// commit moves up to amount chips from the player's stack into the
// ledger, flipping the player to all-in when the stack empties.
// Returns the chips actually committed.
func (p *Player) commit(ledger *PotLedger, amount int64) int64 {
	if amount > p.Stack {
		amount = p.Stack
	}
	p.Stack -= amount
	p.StreetBet += amount
	p.RoundBet += amount
	ledger.Commit(p.Seat, amount)
	if p.Stack == 0 && p.Status == StatusActive {
		p.Status = StatusAllIn
	}
	return amount
}
