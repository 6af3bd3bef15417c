package otp

import (
	"context"
	"time"
)

func secondsCeil(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RestartTimer resets the resend countdown to its configured duration and
// starts it.
func (c *Challenge) RestartTimer(opts RestartOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restartLocked(opts)
}

func (c *Challenge) restartLocked(opts RestartOptions) {
	c.remaining = c.cfg.Timer
	c.running = true
	c.update(func(st *State) {
		st.ResendLocked = false
		st.ResendDisabled = opts.DisableResend
		if !opts.KeepResendEnabled {
			st.ResendEnabled = false
		}
		st.TimerSecondsRemaining = secondsCeil(c.remaining)
	})
	if !opts.SkipInitialTick {
		c.tickLocked()
	}
}

// Tick advances the countdown by one tick interval. At zero the countdown
// stops and the resend action is enabled. Tick also clears an elapsed
// lockout notice.
func (c *Challenge) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
}

func (c *Challenge) tickLocked() {
	st := c.state.Get()
	lockoutElapsed := st.Lockout != nil && !c.cfg.Now().Before(st.Lockout.Until)
	if !c.running && !lockoutElapsed {
		return
	}

	c.update(func(st *State) {
		if lockoutElapsed {
			st.Lockout = nil
		}
		if !c.running {
			return
		}
		c.remaining -= c.cfg.Tick
		if c.remaining <= 0 {
			c.remaining = 0
			c.running = false
			st.ResendEnabled = true
		}
		st.TimerSecondsRemaining = secondsCeil(c.remaining)
	})
}

// Running reports whether the countdown is active.
func (c *Challenge) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Run drives Tick from a ticker at the configured interval until ctx is
// done.
func (c *Challenge) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}
