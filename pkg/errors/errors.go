package errors

import "errors"

// Authentication / accounts
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserBanned         = errors.New("user is banned")
	ErrAlreadyLoggedIn    = errors.New("user already logged in")
	ErrRewardNotActive    = errors.New("login reward not active yet")
)

// Table lifecycle
var (
	ErrTableNotFound     = errors.New("table does not exist")
	ErrTableFull         = errors.New("table is full")
	ErrTitleTaken        = errors.New("table title already taken")
	ErrRankedStarted     = errors.New("ranked match already started")
	ErrAlreadySeated     = errors.New("player already seated at a table")
	ErrNotSeated         = errors.New("player is not seated at this table")
	ErrInvalidBuyIn      = errors.New("invalid buy-in amount")
	ErrInsufficientChips = errors.New("insufficient chips")
)

// In-round protocol violations. Request-fatal, table state unchanged.
var (
	ErrIllegalAction = errors.New("illegal action")
	ErrOutOfTurn     = errors.New("acted out of turn")
	ErrNoActiveRound = errors.New("no round in progress")
)

// Internal invariant breaches. Fatal to the round, never user-facing.
var (
	ErrDeckExhausted = errors.New("deck exhausted")
	ErrPotMismatch   = errors.New("pot total does not match commitments")
)
