package game

import (
	"time"
)

// turnClock runs one countdown per awaited decision: a fixed decision
// window plus a grace overtime. Expiry fires on the timer goroutine
// but only ever calls back with the turn token it was armed with, so
// the table can discard a stale expiry that lost the race against a
// real action.
type turnClock struct {
	window   time.Duration
	overtime time.Duration

	timer    *time.Timer
	deadline time.Time
	token    uint64
}

func newTurnClock(window, overtime time.Duration) *turnClock {
	return &turnClock{window: window, overtime: overtime}
}

// arm starts the countdown for a new turn and returns its token.
func (c *turnClock) arm(expire func(token uint64)) uint64 {
	c.cancel()
	c.token++
	token := c.token
	total := c.window + c.overtime
	c.deadline = time.Now().Add(total)
	c.timer = time.AfterFunc(total, func() {
		expire(token)
	})
	return token
}

// cancel stops the pending countdown. A timer that already fired is
// neutralized by the token check instead.
func (c *turnClock) cancel() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.deadline = time.Time{}
}

// current reports whether token belongs to the countdown still in play.
func (c *turnClock) current(token uint64) bool {
	return c.timer != nil && token == c.token
}

// remainingSeconds is the visible countdown, excluding the grace.
func (c *turnClock) remainingSeconds() int {
	if c.deadline.IsZero() {
		return 0
	}
	diff := time.Until(c.deadline) - c.overtime
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Second)
}
