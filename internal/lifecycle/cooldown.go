// SPDX-License-Identifier: MIT
package lifecycle

import "time"

// Cooldown is a failure rate limiter: after maxFailures recorded
// failures it reports a cooldown for the configured window from the
// most recent failure. It owns its own counters and timestamps rather
// than leaking them into caller state.
type Cooldown struct {
	window      time.Duration
	maxFailures int
	now         func() time.Time

	failures    int
	lastFailure time.Time
}

// NewCooldown creates a Cooldown allowing maxFailures attempts before
// holding off for window.
func NewCooldown(window time.Duration, maxFailures int) *Cooldown {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Cooldown{
		window:      window,
		maxFailures: maxFailures,
		now:         time.Now,
	}
}

// RecordFailure notes one failed attempt.
func (c *Cooldown) RecordFailure() {
	c.failures++
	c.lastFailure = c.now()
}

// InCooldown reports whether attempts should be skipped. The window
// expiring grants a fresh set of attempts.
func (c *Cooldown) InCooldown() bool {
	if c.failures < c.maxFailures {
		return false
	}
	if c.now().Sub(c.lastFailure) >= c.window {
		c.failures = 0
		return false
	}
	return true
}

// Reset clears all recorded failures.
func (c *Cooldown) Reset() {
	c.failures = 0
	c.lastFailure = time.Time{}
}
