package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"go.uber.org/zap"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePreFlop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// Settings fixes a table's identity at creation time.
type Settings struct {
	Name       string
	SmallBlind int64
	MaxPlayers int
	Ranked     bool
}

// Timing carries the clock constants the table honors. CardReveal only
// paces outbound presentation and never gates a state transition.
type Timing struct {
	TurnWindow  time.Duration
	Overtime    time.Duration
	RoundPause  time.Duration
	CardReveal  time.Duration
	SitOutAfter int
}

// Rater reports a ranked finish and returns the rating before/after.
// Implemented by the rating service; nil on casual tables.
type Rater interface {
	ReportFinish(username, tableName string, place, playerCount int) (oldRating, newRating int)
}

// RoundSummary is handed to the finish hook once per settled round.
type RoundSummary struct {
	TableName  string
	DealerSeat int
	Community  []Card
	Awards     []PotAward
	Winners    []string // usernames, de-duplicated
}

// LeaveResult is the response variant for a leave request.
type LeaveResult struct {
	Kind   string // EventLeaveGranted / EventLeaveNoMoney / EventLeaveRanked
	Cashed int64
	Ranked *LeaveRankedPayload
}

// TableSession owns one table end to end: seating, blinds, dealing,
// street betting, showdown settlement and outbound events. One mutex
// is the table's single serialization point; WS actions, timer expiry
// and disconnects all pass through it, so the state machine is
// logically single-threaded and whichever event takes the lock first
// wins any race.
type TableSession struct {
	mu sync.Mutex

	name          string
	smallBlind    int64
	maxPlayers    int
	ranked        bool
	rankedStarted bool
	closed        bool

	seats     []*Player // seat index -> player, nil when empty
	dealer    int
	community []Card
	deck      *Deck

	phase        Phase
	betting      *bettingRound
	ledger       *PotLedger
	clock        *turnClock
	roundPlayers []*Player // seats dealt in, ascending seat order
	roundGen     uint64    // invalidates scheduled round starts

	subscribers map[string]chan OutgoingMessage
	seq         int64

	timing Timing
	rater  Rater

	onRoundFinished func(RoundSummary)
	onCashOut       func(username string, chips int64)
}

// SetCashOutHook installs the callback credited with a leaver's
// remaining stack. Must be set before players join.
func (t *TableSession) SetCashOutHook(hook func(username string, chips int64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCashOut = hook
}

func NewTableSession(settings Settings, timing Timing, rnd *rand.Rand, rater Rater, onRoundFinished func(RoundSummary)) *TableSession {
	return &TableSession{
		name:            settings.Name,
		smallBlind:      settings.SmallBlind,
		maxPlayers:      settings.MaxPlayers,
		ranked:          settings.Ranked,
		seats:           make([]*Player, settings.MaxPlayers),
		dealer:          -1,
		deck:            NewDeck(rnd),
		phase:           PhaseWaiting,
		clock:           newTurnClock(timing.TurnWindow, timing.Overtime),
		ledger:          NewPotLedger(),
		subscribers:     make(map[string]chan OutgoingMessage),
		timing:          timing,
		rater:           rater,
		onRoundFinished: onRoundFinished,
	}
}

func (t *TableSession) Name() string { return t.name }

// ---------------------------------------------------------------
// Seating
// ---------------------------------------------------------------

// Join seats a player with their buy-in and subscribes them to table
// events. The returned channel carries everything the client renders.
func (t *TableSession) Join(username string, buyIn int64) (int, <-chan OutgoingMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, nil, appErr.ErrTableNotFound
	}
	if t.ranked && t.rankedStarted {
		return 0, nil, appErr.ErrRankedStarted
	}
	if t.seatByUsernameLocked(username) != nil {
		return 0, nil, appErr.ErrAlreadySeated
	}
	if buyIn <= 0 {
		return 0, nil, appErr.ErrInvalidBuyIn
	}

	seat := -1
	for i, p := range t.seats {
		if p == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		return 0, nil, appErr.ErrTableFull
	}

	t.seats[seat] = &Player{
		Seat:     seat,
		Username: username,
		Stack:    buyIn,
		Status:   StatusActive,
	}

	ch := make(chan OutgoingMessage, 32)
	t.subscribers[username] = ch

	t.broadcastLocked(EventPlayerJoined, JoinedPayload{Seat: seat, Username: username, Stack: buyIn})
	t.signalLocked(username, EventTableState, t.snapshotLocked())

	t.maybeStartRoundLocked()
	return seat, ch, nil
}

// Leave vacates the player's seat. Mid-round the seat is folded first;
// its chips stay in the pot. Ranked tables report the finish place and
// rating delta.
func (t *TableSession) Leave(username string) (LeaveResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(username, EventLeaveGranted)
}

func (t *TableSession) leaveLocked(username, kind string) (LeaveResult, error) {
	p := t.seatByUsernameLocked(username)
	if p == nil {
		return LeaveResult{}, appErr.ErrNotSeated
	}

	if p.InHand() && t.roundInProgressLocked() {
		t.foldSeatLocked(p.Seat)
		if p.InHand() && t.roundInProgressLocked() {
			// An all-in stake keeps contesting the pots it funded. The
			// seat is parked and cashed out once the round settles.
			p.leaving = true
			res := LeaveResult{Kind: kind, Cashed: 0}
			t.signalLocked(username, res.Kind, nil)
			return res, nil
		}
	}

	res := LeaveResult{Kind: kind, Cashed: p.Stack}
	if p.Stack == 0 && kind == EventLeaveGranted {
		res.Kind = EventLeaveNoMoney
	}
	if t.ranked && t.rankedStarted && t.rater != nil {
		place := t.occupiedLocked()
		oldR, newR := t.rater.ReportFinish(username, t.name, place, t.maxPlayers)
		res.Kind = EventLeaveRanked
		res.Ranked = &LeaveRankedPayload{PlaceFinished: place, OldRating: oldR, NewRating: newR}
	}

	t.signalLocked(username, res.Kind, res.Ranked)
	t.vacateLocked(p)
	if t.onCashOut != nil {
		go t.onCashOut(username, res.Cashed)
	}
	return res, nil
}

func (t *TableSession) vacateLocked(p *Player) {
	t.seats[p.Seat] = nil
	if ch, ok := t.subscribers[p.Username]; ok {
		delete(t.subscribers, p.Username)
		close(ch)
	}
	t.broadcastLocked(EventPlayerLeft, LeftPayload{Seat: p.Seat})
}

// HandleDisconnect is the asynchronous drop of a connection, injected
// through the same lock as every other event. Mid-hand a seat still
// owed a decision folds; an all-in seat keeps its stake eligible for
// the pots it funded. Either way the seat is vacated once the round
// settles; between rounds it leaves at once.
func (t *TableSession) HandleDisconnect(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.seatByUsernameLocked(username)
	if p == nil {
		return
	}
	if p.InHand() && t.roundInProgressLocked() {
		t.foldSeatLocked(p.Seat)
		if t.roundInProgressLocked() {
			// Seat stays parked until the round settles, then leaves.
			p.leaving = true
			if !p.InHand() {
				p.Status = StatusDisconnected
			}
			return
		}
	}
	_, _ = t.leaveLocked(username, EventLeaveGranted)
}

// Empty reports whether no seat is occupied.
func (t *TableSession) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.occupiedLocked() == 0
}

// Close marks the session dead; subscribers are dropped.
func (t *TableSession) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.clock.cancel()
	for name, ch := range t.subscribers {
		delete(t.subscribers, name)
		close(ch)
	}
}

// ---------------------------------------------------------------
// Inbound decisions
// ---------------------------------------------------------------

// HandleAction applies one decision for the player's seat. Illegal or
// out-of-turn actions reject the request and leave the table intact.
func (t *TableSession) HandleAction(username string, action Action) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.seatByUsernameLocked(username)
	if p == nil {
		return appErr.ErrNotSeated
	}
	if t.betting == nil || !t.roundInProgressLocked() {
		return appErr.ErrNoActiveRound
	}

	res, err := t.betting.apply(p.Seat, action)
	if err != nil {
		return err
	}
	p.timeouts = 0
	t.clock.cancel()
	t.emitDecisionLocked(p.Seat, res)
	t.continueRoundLocked(res.Closed)
	return nil
}

// HandleChat relays table chat. No game-state interaction.
func (t *TableSession) HandleChat(username, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.seatByUsernameLocked(username)
	if p == nil {
		return appErr.ErrNotSeated
	}
	t.broadcastLocked(EventChatMessage, ChatPayload{Seat: p.Seat, Text: text})
	return nil
}

// Snapshot returns the full scene for one client.
func (t *TableSession) Snapshot() TableStatePayload {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *TableSession) emitDecisionLocked(seat int, res betResult) {
	switch res.Kind {
	case ActionCheck:
		t.broadcastLocked(EventPlayerChecked, DecisionPayload{Seat: seat})
	case ActionCall:
		t.broadcastLocked(EventPlayerCalled, DecisionPayload{Seat: seat, Amount: res.Paid})
	case ActionRaise:
		t.broadcastLocked(EventPlayerRaised, DecisionPayload{Seat: seat, Amount: res.NewTotal})
	case ActionAllIn:
		t.broadcastLocked(EventPlayerAllIn, DecisionPayload{Seat: seat, Amount: res.NewTotal})
	case ActionFold:
		t.broadcastLocked(EventPlayerFolded, DecisionPayload{Seat: seat})
	}
}

// ---------------------------------------------------------------
// Round lifecycle
// ---------------------------------------------------------------

func (t *TableSession) roundInProgressLocked() bool {
	switch t.phase {
	case PhasePreFlop, PhaseFlop, PhaseTurn, PhaseRiver, PhaseShowdown:
		return true
	}
	return false
}

func (t *TableSession) maybeStartRoundLocked() {
	if t.phase != PhaseWaiting || t.closed {
		return
	}
	t.benchTimedOutLocked()
	ready := 0
	for _, p := range t.seats {
		if t.readyForDeal(p) {
			ready++
		}
	}
	if ready < 2 {
		return
	}
	t.startRoundLocked()
}

// benchTimedOutLocked moves seats past the timeout allowance to
// sitting out before a deal. SitIn brings them back.
func (t *TableSession) benchTimedOutLocked() {
	for _, p := range t.seats {
		if p == nil || p.Status == StatusSittingOut {
			continue
		}
		if p.timeouts >= t.timing.SitOutAfter {
			p.Status = StatusSittingOut
			logger.Log.Info("seat benched after repeated timeouts",
				zap.String("table", t.name),
				zap.Int("seat", p.Seat),
			)
		}
	}
}

func (t *TableSession) readyForDeal(p *Player) bool {
	if p == nil || p.Stack <= 0 {
		return false
	}
	return p.Status == StatusActive || p.Status == StatusFolded || p.Status == StatusAllIn
}

// SitIn returns a benched seat to the deal rotation.
func (t *TableSession) SitIn(username string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.seatByUsernameLocked(username)
	if p == nil {
		return appErr.ErrNotSeated
	}
	if p.Status == StatusSittingOut {
		p.Status = StatusActive
		p.timeouts = 0
		t.maybeStartRoundLocked()
	}
	return nil
}

func (t *TableSession) startRoundLocked() {
	t.roundGen++
	t.ledger = NewPotLedger()
	t.community = nil
	t.deck.Shuffle()

	t.roundPlayers = t.roundPlayers[:0]
	for _, p := range t.seats {
		if p == nil {
			continue
		}
		p.StreetBet = 0
		p.RoundBet = 0
		p.holeCards = nil
		if t.readyForDeal(p) {
			p.Status = StatusActive
			p.inRound = true
			t.roundPlayers = append(t.roundPlayers, p)
		} else {
			p.inRound = false
		}
	}

	t.dealer = t.nextInRoundSeatLocked(t.dealer)
	sbSeat := t.nextInRoundSeatLocked(t.dealer)
	bbSeat := t.nextInRoundSeatLocked(sbSeat)

	sb := t.playerAtLocked(sbSeat)
	bb := t.playerAtLocked(bbSeat)
	sb.commit(t.ledger, t.smallBlind)
	bb.commit(t.ledger, t.smallBlind*2)

	if t.ranked {
		t.rankedStarted = true
	}

	t.broadcastLocked(EventBlinds, BlindsPayload{
		DealerSeat:     t.dealer,
		SmallBlindSeat: sbSeat,
		BigBlindSeat:   bbSeat,
		SmallBlind:     t.smallBlind,
	})

	for _, p := range t.roundPlayers {
		cards, err := t.deck.Draw(2)
		if err != nil {
			t.abortRoundLocked(err)
			return
		}
		p.holeCards = append([]Card(nil), cards...)
		t.signalLocked(p.Username, EventHand, HandPayload{Cards: p.holeCards})
	}

	firstToAct := t.nextInRoundSeatLocked(bbSeat)
	t.betting = newBettingRound(t.roundPlayers, t.ledger, t.smallBlind*2, t.smallBlind*2, firstToAct, bbSeat)
	t.phase = PhasePreFlop

	// Blinds may already have someone all-in with no decision left.
	if t.betting.closureReached() {
		t.betting.acting = -1
		t.continueRoundLocked(true)
		return
	}
	t.promptTurnLocked()
}

// continueRoundLocked runs the shared continuation after any applied
// decision: uncontested win, street closure, or the next prompt.
func (t *TableSession) continueRoundLocked(streetClosed bool) {
	if t.liveCountLocked() <= 1 {
		t.settleUncontestedLocked()
		return
	}
	if streetClosed || t.betting.closed() {
		t.advanceStreetLocked()
		return
	}
	t.promptTurnLocked()
}

func (t *TableSession) liveCountLocked() int {
	n := 0
	for _, p := range t.roundPlayers {
		if p.InHand() {
			n++
		}
	}
	return n
}

func (t *TableSession) promptTurnLocked() {
	acting := t.betting.actingSeat()
	if acting < 0 {
		t.advanceStreetLocked()
		return
	}
	p := t.playerAtLocked(acting)

	gen := t.roundGen
	t.clock.arm(func(token uint64) {
		t.onTurnExpired(token, gen)
	})

	t.broadcastLocked(EventPlayerTurn, PlayerTurnPayload{
		Seat:      acting,
		Countdown: int(t.timing.TurnWindow / time.Second),
	})
	t.signalLocked(p.Username, EventRequiredBet, RequiredBetPayload{Amount: t.betting.requiredBet()})
}

// onTurnExpired injects the implicit decision for an expired turn. The
// token check makes a turn that already resolved a no-op, so exactly
// one action is ever applied per awaited decision.
func (t *TableSession) onTurnExpired(token uint64, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.roundGen || !t.clock.current(token) || t.betting == nil {
		return
	}
	seat := t.betting.actingSeat()
	if seat < 0 {
		return
	}
	p := t.playerAtLocked(seat)
	if p == nil {
		return
	}

	kind := ActionFold
	if t.betting.requiredBet() == 0 {
		kind = ActionCheck
	}
	res, err := t.betting.apply(seat, Action{Kind: kind})
	if err != nil {
		logger.Log.Error("implicit action rejected",
			zap.String("table", t.name),
			zap.Int("seat", seat),
			zap.Error(err),
		)
		return
	}
	p.timeouts++
	t.clock.cancel()
	t.emitDecisionLocked(seat, res)
	t.continueRoundLocked(res.Closed)
}

// foldSeatLocked folds a seat outside its turn and keeps the round
// moving. A fold that changes nothing for the seat still awaiting
// action leaves that player's clock alone. A seat with no decision
// left (all-in) is never folded here.
func (t *TableSession) foldSeatLocked(seat int) {
	if t.betting == nil {
		return
	}
	if p := t.playerAtLocked(seat); p == nil || !p.CanAct() {
		return
	}
	actingBefore := t.betting.actingSeat()
	t.betting.foldOut(seat)
	t.broadcastLocked(EventPlayerFolded, DecisionPayload{Seat: seat})

	if t.liveCountLocked() <= 1 {
		t.clock.cancel()
		t.settleUncontestedLocked()
		return
	}
	if t.betting.closed() {
		t.clock.cancel()
		t.advanceStreetLocked()
		return
	}
	if t.betting.actingSeat() != actingBefore {
		t.clock.cancel()
		t.promptTurnLocked()
	}
}

func (t *TableSession) advanceStreetLocked() {
	for _, p := range t.roundPlayers {
		p.StreetBet = 0
	}

	// With at most one seat able to act there is nobody left to bet
	// against, so no decision remains anywhere. Run the remaining
	// streets out and go straight to showdown.
	actable := 0
	for _, p := range t.roundPlayers {
		if p.CanAct() {
			actable++
		}
	}
	fastForward := actable <= 1

	for {
		var err error
		switch t.phase {
		case PhasePreFlop:
			err = t.dealCommunityLocked(3, EventFlop)
			t.phase = PhaseFlop
		case PhaseFlop:
			err = t.dealCommunityLocked(1, EventTurn)
			t.phase = PhaseTurn
		case PhaseTurn:
			err = t.dealCommunityLocked(1, EventRiver)
			t.phase = PhaseRiver
		case PhaseRiver:
			t.showdownLocked()
			return
		default:
			return
		}
		if err != nil {
			t.abortRoundLocked(err)
			return
		}
		if !fastForward {
			break
		}
	}

	firstToAct := t.nextInRoundSeatLocked(t.dealer)
	t.betting = newBettingRound(t.roundPlayers, t.ledger, t.smallBlind*2, 0, firstToAct, -1)
	if t.betting.closureReached() {
		t.betting.acting = -1
		t.advanceStreetLocked()
		return
	}
	t.promptTurnLocked()
}

func (t *TableSession) dealCommunityLocked(n int, event string) error {
	cards, err := t.deck.Draw(n)
	if err != nil {
		return err
	}
	t.community = append(t.community, cards...)
	t.broadcastLocked(event, CommunityPayload{Cards: append([]Card(nil), cards...)})
	return nil
}

// ---------------------------------------------------------------
// Settlement
// ---------------------------------------------------------------

// settleUncontestedLocked awards everything to the last live seat
// without revealing cards.
func (t *TableSession) settleUncontestedLocked() {
	var winner *Player
	for _, p := range t.roundPlayers {
		if p.InHand() {
			winner = p
			break
		}
	}
	if winner == nil {
		t.abortRoundLocked(errors.New("no live seat at settlement"))
		return
	}

	total := t.ledger.Total()
	winner.Stack += total
	t.broadcastLocked(EventShowdown, ShowdownPayload{
		Pots: []PotAward{{Amount: total, Winners: []int{winner.Seat}}},
	})
	t.finishRoundLocked([]PotAward{{Amount: total, Winners: []int{winner.Seat}}})
}

func (t *TableSession) showdownLocked() {
	t.phase = PhaseShowdown
	t.clock.cancel()

	order := t.seatOrderFromButtonLocked()
	values := make(map[int]HandValue, len(t.roundPlayers))
	reveal := make([]SeatCards, 0, len(t.roundPlayers))
	for _, seat := range order {
		p := t.playerAtLocked(seat)
		if p == nil || !p.InHand() {
			continue
		}
		v, err := EvaluateHand(append(append([]Card(nil), p.holeCards...), t.community...))
		if err != nil {
			t.abortRoundLocked(err)
			return
		}
		values[seat] = v
		reveal = append(reveal, SeatCards{Seat: seat, Cards: p.holeCards})
	}

	t.broadcastLocked(EventCardsReveal, CardsRevealPayload{Hands: reveal})

	awards, err := t.ledger.Award(values, order)
	if err != nil {
		t.abortRoundLocked(err)
		return
	}

	// Pot distribution and stack credit are one atomic step under the
	// table lock; observers never see a partial settlement.
	for _, award := range awards {
		shares := award.Shares()
		for i, seat := range award.Winners {
			t.playerAtLocked(seat).Stack += shares[i]
		}
	}

	t.broadcastLocked(EventShowdown, ShowdownPayload{Pots: awards})
	t.finishRoundLocked(awards)
}

func (t *TableSession) finishRoundLocked(awards []PotAward) {
	t.broadcastLocked(EventRoundFinished, nil)

	if t.onRoundFinished != nil {
		seen := make(map[string]bool)
		winners := make([]string, 0, 2)
		for _, award := range awards {
			for _, seat := range award.Winners {
				if p := t.playerAtLocked(seat); p != nil && !seen[p.Username] {
					seen[p.Username] = true
					winners = append(winners, p.Username)
				}
			}
		}
		summary := RoundSummary{
			TableName:  t.name,
			DealerSeat: t.dealer,
			Community:  append([]Card(nil), t.community...),
			Awards:     awards,
			Winners:    winners,
		}
		go t.onRoundFinished(summary)
	}

	t.betting = nil
	t.phase = PhaseWaiting
	t.clock.cancel()

	// Bust seats and seats whose player left mid-hand vacate before
	// the next deal, after any winnings were credited.
	for _, p := range t.seats {
		if p == nil {
			continue
		}
		p.inRound = false
		if p.leaving || p.Status == StatusDisconnected || p.Stack == 0 {
			kind := EventLeaveGranted
			if p.Stack == 0 {
				kind = EventLeaveNoMoney
			}
			if _, err := t.leaveLocked(p.Username, kind); err != nil {
				logger.Log.Warn("post-round leave failed",
					zap.String("table", t.name),
					zap.String("username", p.Username),
					zap.Error(err),
				)
			}
		}
	}

	gen := t.roundGen
	time.AfterFunc(t.timing.RoundPause, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.roundGen == gen && t.phase == PhaseWaiting {
			t.maybeStartRoundLocked()
		}
	})
}

// abortRoundLocked handles an internal invariant breach: refund every
// commitment, reset to waiting, log for investigation. Should never
// fire under correct sequencing.
func (t *TableSession) abortRoundLocked(cause error) {
	logger.Log.Error("round aborted on invariant breach",
		zap.String("table", t.name),
		zap.String("phase", string(t.phase)),
		zap.Error(cause),
	)
	for _, p := range t.roundPlayers {
		p.Stack += p.RoundBet
		p.RoundBet = 0
		p.StreetBet = 0
		p.inRound = false
	}
	t.ledger = NewPotLedger()
	t.betting = nil
	t.clock.cancel()
	t.phase = PhaseWaiting
	t.broadcastLocked(EventRoundFinished, nil)
}

// ---------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------

func (t *TableSession) playerAtLocked(seat int) *Player {
	if seat < 0 || seat >= len(t.seats) {
		return nil
	}
	return t.seats[seat]
}

func (t *TableSession) seatByUsernameLocked(username string) *Player {
	for _, p := range t.seats {
		if p != nil && p.Username == username {
			return p
		}
	}
	return nil
}

func (t *TableSession) occupiedLocked() int {
	n := 0
	for _, p := range t.seats {
		if p != nil {
			n++
		}
	}
	return n
}

// nextInRoundSeatLocked walks clockwise from seat to the next seat
// dealt into the round.
func (t *TableSession) nextInRoundSeatLocked(seat int) int {
	n := len(t.seats)
	start := seat
	if start < 0 {
		start = n - 1
	}
	for step := 1; step <= n; step++ {
		idx := (start + step) % n
		p := t.seats[idx]
		if p != nil && p.inRound {
			return idx
		}
	}
	return seat
}

// seatOrderFromButtonLocked lists in-round seats clockwise starting
// with the seat after the dealer button.
func (t *TableSession) seatOrderFromButtonLocked() []int {
	order := make([]int, 0, len(t.roundPlayers))
	n := len(t.seats)
	for step := 1; step <= n; step++ {
		idx := (t.dealer + step) % n
		p := t.seats[idx]
		if p != nil && p.inRound {
			order = append(order, idx)
		}
	}
	return order
}

func (t *TableSession) snapshotLocked() TableStatePayload {
	seats := make([]SeatInfo, 0, t.occupiedLocked())
	for _, p := range t.seats {
		if p == nil {
			continue
		}
		seats = append(seats, SeatInfo{
			Seat:     p.Seat,
			Username: p.Username,
			Stack:    p.Stack,
			Bet:      p.StreetBet,
			Folded:   p.Status == StatusFolded,
		})
	}
	turnSeat := -1
	if t.betting != nil {
		turnSeat = t.betting.actingSeat()
	}
	return TableStatePayload{
		Name:       t.name,
		DealerSeat: t.dealer,
		SmallBlind: t.smallBlind,
		MaxPlayers: t.maxPlayers,
		Ranked:     t.ranked,
		Seats:      seats,
		Community:  append([]Card(nil), t.community...),
		TurnSeat:   turnSeat,
		Pot:        t.ledger.Total(),
	}
}

// ---------------------------------------------------------------
// Outbound
// ---------------------------------------------------------------

func (t *TableSession) nextSeqLocked() int64 {
	t.seq++
	return t.seq
}

// broadcastLocked pushes to every subscriber without blocking; a full
// buffer drops the message and logs, never stalling the game.
func (t *TableSession) broadcastLocked(event string, data interface{}) {
	msg := OutgoingMessage{Type: event, Seq: t.nextSeqLocked(), Data: data}
	for username, ch := range t.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full",
				zap.String("table", t.name),
				zap.String("username", username),
				zap.String("event", event),
			)
		}
	}
}

// signalLocked pushes to a single subscriber.
func (t *TableSession) signalLocked(username, event string, data interface{}) {
	ch, ok := t.subscribers[username]
	if !ok {
		return
	}
	msg := OutgoingMessage{Type: event, Seq: t.nextSeqLocked(), Data: data}
	select {
	case ch <- msg:
	default:
		logger.Log.Warn("subscriber channel full",
			zap.String("table", t.name),
			zap.String("username", username),
			zap.String("event", event),
		)
	}
}
