package game

import (
	"fmt"

	appErr "holdem-service/pkg/errors"
)

// Player decision kinds accepted on a seat's turn.
const (
	ActionCheck = "check"
	ActionCall  = "call"
	ActionRaise = "raise"
	ActionAllIn = "all_in"
	ActionFold  = "fold"
)

// Action is one inbound decision. Amount is the raise size and is
// ignored for every other kind.
type Action struct {
	Kind   string `json:"kind"`
	Amount int64  `json:"amount,omitempty"`
}

// betResult tells the table what to broadcast after a legal action.
type betResult struct {
	Kind      string
	Paid      int64 // chips moved by a call
	NewTotal  int64 // street commitment after a raise
	WentAllIn bool
	Closed    bool
}

// bettingRound enforces turn order and action legality for one street.
// It mutates player stacks through the shared pot ledger and reports
// closure; the table owns everything across streets.
type bettingRound struct {
	players  []*Player // all seats dealt into the round, seat order
	ledger   *PotLedger
	bigBlind int64

	toCall        int64 // highest street commitment so far
	minRaise      int64 // big blind, or the last full raise size
	lastAggressor int   // seat of the last full raise, -1 when none
	acting        int   // seat awaiting action, -1 once closed

	acted map[int]bool // seats that acted since the last full raise
}

// newBettingRound starts a street. openBet is non-zero only pre-flop,
// where the big blind opens the action and holds the aggressor role.
func newBettingRound(players []*Player, ledger *PotLedger, bigBlind, openBet int64, firstToAct, aggressor int) *bettingRound {
	b := &bettingRound{
		players:       players,
		ledger:        ledger,
		bigBlind:      bigBlind,
		toCall:        openBet,
		minRaise:      bigBlind,
		lastAggressor: aggressor,
		acting:        firstToAct,
		acted:         make(map[int]bool),
	}
	// A blind that put a seat all-in leaves it with no decision; skip
	// ahead to the first seat that can actually act.
	if p := b.playerBySeat(firstToAct); p == nil || !p.CanAct() {
		b.acting = b.nextActing(firstToAct)
	}
	return b
}

func (b *bettingRound) actingSeat() int {
	return b.acting
}

func (b *bettingRound) closed() bool {
	return b.acting < 0
}

// requiredBet is what the acting player owes to continue.
func (b *bettingRound) requiredBet() int64 {
	p := b.playerBySeat(b.acting)
	if p == nil {
		return 0
	}
	return b.toCall - p.StreetBet
}

func (b *bettingRound) playerBySeat(seat int) *Player {
	for _, p := range b.players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// apply validates and executes one action for seat. A violation leaves
// every player untouched and returns an ErrIllegalAction or
// ErrOutOfTurn wrap; the table treats that as request-fatal only.
func (b *bettingRound) apply(seat int, action Action) (betResult, error) {
	if b.closed() {
		return betResult{}, fmt.Errorf("%w: street already closed", appErr.ErrIllegalAction)
	}
	if seat != b.acting {
		return betResult{}, fmt.Errorf("%w: seat %d acted on seat %d's turn", appErr.ErrOutOfTurn, seat, b.acting)
	}
	p := b.playerBySeat(seat)
	if p == nil || !p.CanAct() {
		return betResult{}, fmt.Errorf("%w: seat %d cannot act", appErr.ErrIllegalAction, seat)
	}

	owed := b.toCall - p.StreetBet
	res := betResult{Kind: action.Kind}

	switch action.Kind {
	case ActionCheck:
		if owed != 0 {
			return betResult{}, fmt.Errorf("%w: check with %d outstanding", appErr.ErrIllegalAction, owed)
		}

	case ActionCall:
		if owed <= 0 {
			return betResult{}, fmt.Errorf("%w: nothing to call", appErr.ErrIllegalAction)
		}
		res.Paid = p.commit(b.ledger, owed)
		res.WentAllIn = p.Status == StatusAllIn

	case ActionRaise:
		if action.Amount < b.minRaise {
			return betResult{}, fmt.Errorf("%w: raise %d below minimum %d", appErr.ErrIllegalAction, action.Amount, b.minRaise)
		}
		need := owed + action.Amount
		if need > p.Stack {
			return betResult{}, fmt.Errorf("%w: raise needs %d, stack is %d", appErr.ErrIllegalAction, need, p.Stack)
		}
		p.commit(b.ledger, need)
		b.toCall = p.StreetBet
		b.minRaise = action.Amount
		b.lastAggressor = seat
		b.reopen(seat)
		res.NewTotal = p.StreetBet
		res.WentAllIn = p.Status == StatusAllIn

	case ActionAllIn:
		if p.Stack <= 0 {
			return betResult{}, fmt.Errorf("%w: empty stack", appErr.ErrIllegalAction)
		}
		p.commit(b.ledger, p.Stack)
		res.WentAllIn = true
		res.NewTotal = p.StreetBet
		if p.StreetBet > b.toCall {
			raiseSize := p.StreetBet - b.toCall
			b.toCall = p.StreetBet
			b.lastAggressor = seat
			// A short all-in below the minimum raise does not reopen
			// the action to players who already acted.
			if raiseSize >= b.minRaise {
				b.minRaise = raiseSize
				b.reopen(seat)
			}
		}

	case ActionFold:
		p.Status = StatusFolded
		b.ledger.MarkFolded(seat)

	default:
		return betResult{}, fmt.Errorf("%w: unknown action %q", appErr.ErrIllegalAction, action.Kind)
	}

	b.acted[seat] = true
	b.advance()
	res.Closed = b.closed()
	return res, nil
}

// reopen resets everyone else's acted mark after a full raise.
func (b *bettingRound) reopen(raiser int) {
	for seat := range b.acted {
		if seat != raiser {
			delete(b.acted, seat)
		}
	}
}

// advance moves the turn clockwise, or closes the street when no
// decision remains.
func (b *bettingRound) advance() {
	if b.closureReached() {
		b.acting = -1
		return
	}
	b.acting = b.nextActing(b.acting)
}

// foldOut folds seat outside its turn (disconnect, leave, timeout on a
// seat that already left the turn order). Only a seat still owed a
// decision folds; an all-in seat has no decision left and its stake
// stays eligible for the pots it funded.
func (b *bettingRound) foldOut(seat int) {
	p := b.playerBySeat(seat)
	if p == nil || !p.CanAct() || b.closed() {
		return
	}
	p.Status = StatusFolded
	b.ledger.MarkFolded(seat)
	b.acted[seat] = true
	if b.closureReached() {
		b.acting = -1
		return
	}
	if b.acting == seat {
		b.acting = b.nextActing(seat)
	}
}

// closureReached holds when every active seat has matched the bet and
// acted since the last full raise, or when at most one live seat
// remains, or when nobody has a decision left. A lone seat still able
// to act has nobody to bet against, so the street also closes as soon
// as its commitment matches the bet.
func (b *bettingRound) closureReached() bool {
	live := 0
	actable := 0
	for _, p := range b.players {
		if p.InHand() {
			live++
		}
		if p.CanAct() {
			actable++
		}
	}
	if live <= 1 || actable == 0 {
		return true
	}
	if actable == 1 {
		for _, p := range b.players {
			if p.CanAct() {
				return p.StreetBet >= b.toCall
			}
		}
	}
	for _, p := range b.players {
		if p.CanAct() && (!b.acted[p.Seat] || p.StreetBet < b.toCall) {
			return false
		}
	}
	return true
}

// nextActing finds the next seat clockwise that still owes a decision.
func (b *bettingRound) nextActing(from int) int {
	idx := -1
	for i, p := range b.players {
		if p.Seat == from {
			idx = i
			break
		}
	}
	n := len(b.players)
	for step := 1; step <= n; step++ {
		p := b.players[(idx+step)%n]
		if p.CanAct() && (!b.acted[p.Seat] || p.StreetBet < b.toCall) {
			return p.Seat
		}
	}
	return -1
}
