package game

// Outbound event catalog. The transport layer encodes these however it
// likes; the set and payload shapes are the contract with clients.
const (
	EventPlayerChecked = "player_checked"
	EventPlayerCalled  = "player_called"
	EventPlayerRaised  = "player_raised"
	EventPlayerAllIn   = "player_all_in"
	EventPlayerFolded  = "player_folded"

	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"

	EventHand          = "hand"  // signal
	EventFlop          = "flop"
	EventTurn          = "turn"
	EventRiver         = "river"
	EventShowdown      = "showdown"
	EventRoundFinished = "round_finished"

	EventBlinds      = "blinds"
	EventPlayerTurn  = "player_turn"
	EventRequiredBet = "required_bet" // signal
	EventCardsReveal = "cards_reveal"
	EventTableState  = "table_state" // signal, on join
	EventChatMessage = "chat_message"

	EventLeaveGranted = "leave_granted" // signal
	EventLeaveNoMoney = "leave_no_money"
	EventLeaveRanked  = "leave_ranked"

	EventError = "error" // signal, request rejection
)

// OutgoingMessage is the sequence-numbered envelope pushed to table
// subscribers.
type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

type DecisionPayload struct {
	Seat   int   `json:"seat"`
	Amount int64 `json:"amount,omitempty"` // call amount or raised-to total
}

type JoinedPayload struct {
	Seat     int    `json:"seat"`
	Username string `json:"username"`
	Stack    int64  `json:"stack"`
}

type LeftPayload struct {
	Seat int `json:"seat"`
}

type HandPayload struct {
	Cards []Card `json:"cards"` // exactly two
}

type CommunityPayload struct {
	Cards []Card `json:"cards"`
}

type BlindsPayload struct {
	DealerSeat     int   `json:"dealerSeat"`
	SmallBlindSeat int   `json:"smallBlindSeat"`
	BigBlindSeat   int   `json:"bigBlindSeat"`
	SmallBlind     int64 `json:"smallBlind"`
}

type PlayerTurnPayload struct {
	Seat      int `json:"seat"`
	Countdown int `json:"countdown"` // seconds, excludes grace
}

type RequiredBetPayload struct {
	Amount int64 `json:"amount"`
}

// ShowdownPayload lists pot results in creation order, ascending by
// commitment level; winner seats run clockwise from the button.
type ShowdownPayload struct {
	Pots []PotAward `json:"pots"`
}

type SeatCards struct {
	Seat  int    `json:"seat"`
	Cards []Card `json:"cards"`
}

// CardsRevealPayload lists reveal pairs in clockwise seat order from
// the dealer button.
type CardsRevealPayload struct {
	Hands []SeatCards `json:"hands"`
}

type ChatPayload struct {
	Seat int    `json:"seat"`
	Text string `json:"text"`
}

type LeaveRankedPayload struct {
	PlaceFinished int `json:"placeFinished"`
	OldRating     int `json:"oldRating"`
	NewRating     int `json:"newRating"`
}

// SeatInfo is one occupied seat inside a TableState snapshot.
type SeatInfo struct {
	Seat     int    `json:"seat"`
	Username string `json:"username"`
	Stack    int64  `json:"stack"`
	Bet      int64  `json:"bet"`
	Folded   bool   `json:"folded"`
}

// TableStatePayload is the full snapshot a client needs to build the
// table scene on join.
type TableStatePayload struct {
	Name       string     `json:"name"`
	DealerSeat int        `json:"dealerSeat"`
	SmallBlind int64      `json:"smallBlind"`
	MaxPlayers int        `json:"maxPlayers"`
	Ranked     bool       `json:"ranked"`
	Seats      []SeatInfo `json:"seats"`
	Community  []Card     `json:"community"`
	TurnSeat   int        `json:"turnSeat"` // -1 when idle
	Pot        int64      `json:"pot"`
}
