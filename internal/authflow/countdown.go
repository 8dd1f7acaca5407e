package authflow

import (
	"fmt"
	"time"
)

// OTPExpiry is how long an emailed code stays valid.
const OTPExpiry = 300 * time.Second

// Resend window rule: a resend is allowed during a short grace period right
// after a code is sent (it may simply never have arrived) and again once the
// code is about to expire or has expired. The middle zone — recently sent
// and still comfortably valid — rejects resends locally, with no network
// call, to prevent accidental or abusive rapid re-sends.
const (
	resendGrace  = 30 * time.Second
	resendReopen = 290 * time.Second
)

// Countdown tracks the expiry of the most recently sent code.
type Countdown struct {
	startedAt time.Time
	now       func() time.Time
}

// NewCountdown starts a countdown at the full expiry duration.
func NewCountdown() *Countdown {
	c := &Countdown{now: time.Now}
	c.Reset()
	return c
}

// Reset restarts the countdown, as after a successful resend.
func (c *Countdown) Reset() {
	c.startedAt = c.now()
}

// Elapsed returns the time since the last reset.
func (c *Countdown) Elapsed() time.Duration {
	return c.now().Sub(c.startedAt)
}

// Remaining returns the time until the code expires, clamped at zero.
func (c *Countdown) Remaining() time.Duration {
	remaining := OTPExpiry - c.Elapsed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the code's validity window has fully elapsed.
func (c *Countdown) Expired() bool {
	return c.Remaining() == 0
}

// ResendAllowed reports whether a resend may be requested right now.
func (c *Countdown) ResendAllowed() bool {
	elapsed := c.Elapsed()
	return elapsed < resendGrace || elapsed >= resendReopen
}

// Format renders the remaining time as m:ss for display.
func (c *Countdown) Format() string {
	remaining := c.Remaining().Round(time.Second)
	minutes := int(remaining.Minutes())
	seconds := int(remaining.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
