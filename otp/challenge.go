package otp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/authflow/apierr"
	"github.com/MrEthical07/authflow/signal"
)

const (
	// DefaultCodeLength is the number of digits of a passcode.
	DefaultCodeLength = 6
	// DefaultTimer is the resend countdown duration.
	DefaultTimer = 90 * time.Second
	// DefaultTick is the countdown tick interval.
	DefaultTick = time.Second
	// DefaultAttempts is the initial number of remaining attempts.
	DefaultAttempts = 3
)

// Mode selects the live input validation rule.
type Mode int

const (
	// ModeFixedLength requires exactly CodeLength characters before submit.
	ModeFixedLength Mode = iota
	// ModeNonEmpty only requires a non-empty value; length is checked by the
	// backend. Used by account activation.
	ModeNonEmpty
)

// Config configures a Challenge.
type Config struct {
	CodeLength int
	Mode       Mode
	Timer      time.Duration
	Tick       time.Duration
	Attempts   int
	Classifier *apierr.Classifier
	Now        func() time.Time
	Observer   func(Event)
	Logger     *slog.Logger
}

// Handlers connect a Challenge to its flow.
type Handlers struct {
	// Verify sends code to the backend.
	Verify func(ctx context.Context, code string) error
	// Resend requests a new code and returns the remaining attempts.
	Resend func(ctx context.Context) (int, error)
	// OnVerified runs after a successful verification.
	OnVerified func()
	// OnFailure receives the classified outcome of every failed call.
	OnFailure func(apierr.Outcome)
}

// RestartOptions control RestartTimer.
type RestartOptions struct {
	// SkipInitialTick delays the first decrement by a full tick interval.
	// Without it, the countdown decrements immediately on restart.
	SkipInitialTick bool
	// DisableResend keeps the resend action disabled after the countdown
	// completes.
	DisableResend bool
	// KeepResendEnabled leaves the resend action available while the new
	// countdown runs.
	KeepResendEnabled bool
}

var (
	// ErrNoVerifyHandler is logged when Submit runs without Handlers.Verify.
	ErrNoVerifyHandler = errors.New("otp verify handler not configured")
	// ErrNoResendHandler is logged when Resend runs without Handlers.Resend.
	ErrNoResendHandler = errors.New("otp resend handler not configured")
)

// Challenge is one OTP challenge. It is safe for concurrent use.
type Challenge struct {
	cfg      Config
	handlers Handlers

	mu        sync.Mutex
	state     *signal.Cell[State]
	remaining time.Duration
	running   bool
	verifying int
}

// NewChallenge returns a challenge in the required state with a stopped
// countdown.
func NewChallenge(cfg Config, handlers Handlers) *Challenge {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.Timer <= 0 {
		cfg.Timer = DefaultTimer
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Classifier == nil {
		cfg.Classifier = apierr.NewClassifier(apierr.Config{Now: cfg.Now})
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Challenge{
		cfg:      cfg,
		handlers: handlers,
		state: signal.New(State{
			Status:            StatusRequired,
			AttemptsRemaining: cfg.Attempts,
		}),
	}
}

// Snapshot returns the current state.
func (c *Challenge) Snapshot() State {
	return c.state.Get()
}

// Subscribe registers fn for state changes. fn runs while the challenge
// is locked and must not call mutating Challenge methods.
func (c *Challenge) Subscribe(fn func(State)) func() {
	return c.state.Subscribe(fn)
}

func (c *Challenge) update(fn func(*State)) State {
	st := c.state.Get()
	fn(&st)
	c.state.Set(st)
	return st
}

func (c *Challenge) inputStatus(value string) Status {
	if value == "" {
		return StatusRequired
	}
	if c.cfg.Mode == ModeFixedLength && len(value) < c.cfg.CodeLength {
		return StatusIncomplete
	}
	return StatusValid
}

// SetValue records user input and recomputes the status. maxAttempts and
// locked are kept until a successful resend.
func (c *Challenge) SetValue(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.update(func(st *State) {
		st.Value = value
		if !st.Status.blocking() {
			st.Status = c.inputStatus(value)
		}
	})
}

// SetAttemptsRemaining records the attempt budget reported by the backend
// when a code is first sent. The status is unchanged.
func (c *Challenge) SetAttemptsRemaining(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update(func(st *State) { st.AttemptsRemaining = n })
}

// Submit verifies the current value. It returns false without calling the
// backend when the value is missing or incomplete, the challenge is
// blocked by maxAttempts/locked, or a timed lockout is active.
func (c *Challenge) Submit(ctx context.Context) bool {
	c.mu.Lock()
	st := c.state.Get()
	if st.Lockout != nil && c.cfg.Now().Before(st.Lockout.Until) {
		c.mu.Unlock()
		return false
	}
	if st.Status.blocking() {
		c.mu.Unlock()
		return false
	}
	if status := c.inputStatus(st.Value); status != StatusValid {
		c.update(func(st *State) { st.Status = status })
		c.mu.Unlock()
		return false
	}
	if c.handlers.Verify == nil {
		c.mu.Unlock()
		c.cfg.Logger.Error("otp submit skipped", slog.String("error", ErrNoVerifyHandler.Error()))
		return false
	}
	code := st.Value
	c.verifying++
	c.update(func(st *State) { st.Loading = true })
	c.mu.Unlock()

	err := c.handlers.Verify(ctx, code)
	if err == nil {
		c.mu.Lock()
		c.verifying--
		c.update(func(st *State) {
			st.Loading = c.verifying > 0
			st.Value = ""
			st.Status = StatusValid
			st.Lockout = nil
		})
		c.mu.Unlock()
		c.observe(EventVerifySuccess, "")
		if c.handlers.OnVerified != nil {
			c.handlers.OnVerified()
		}
		return true
	}

	c.fail(err, false)
	return true
}

// Resend requests a new code. resendLocked is set immediately and cleared
// when the call completes.
func (c *Challenge) Resend(ctx context.Context) bool {
	c.mu.Lock()
	st := c.state.Get()
	if st.Lockout != nil && c.cfg.Now().Before(st.Lockout.Until) {
		c.mu.Unlock()
		return false
	}
	if c.handlers.Resend == nil {
		c.mu.Unlock()
		c.cfg.Logger.Error("otp resend skipped", slog.String("error", ErrNoResendHandler.Error()))
		return false
	}
	c.update(func(st *State) { st.ResendLocked = true })
	c.mu.Unlock()

	attempts, err := c.handlers.Resend(ctx)
	if err == nil {
		c.mu.Lock()
		c.update(func(st *State) {
			st.Status = StatusAttempts
			st.AttemptsRemaining = attempts
			st.Lockout = nil
		})
		c.restartLocked(RestartOptions{})
		c.mu.Unlock()
		c.observe(EventResendSuccess, "")
		return true
	}

	c.fail(err, true)
	return true
}

func (c *Challenge) fail(err error, resend bool) {
	outcome := c.cfg.Classifier.Classify(err)

	c.mu.Lock()
	if !resend {
		c.verifying--
	}
	switch {
	case outcome.Strategy == apierr.StrategyLockout:
		c.update(func(st *State) {
			st.Loading = c.verifying > 0
			st.ResendLocked = false
			st.Lockout = &LockoutNotice{
				Title:     outcome.Title,
				Message:   outcome.Message,
				Until:     outcome.Lockout.Until,
				Remaining: outcome.Lockout.Remaining,
			}
		})
	case resend:
		c.update(func(st *State) { st.ResendLocked = false })
		if outcome.Code == apierr.CodeLocked {
			c.restartLocked(RestartOptions{})
		}
	default:
		c.update(func(st *State) {
			st.Loading = c.verifying > 0
			switch apierr.OTPFailureOf(outcome.Code) {
			case apierr.OTPFailureInvalid:
				st.Status, st.Value = StatusInvalid, ""
			case apierr.OTPFailureExpired:
				st.Status, st.Value = StatusExpired, ""
			case apierr.OTPFailureMaxAttempts:
				st.Status, st.Value = StatusMaxAttempts, ""
				st.AttemptsRemaining = 0
			case apierr.OTPFailureLocked:
				st.Status, st.Value = StatusLocked, ""
			}
		})
	}
	c.mu.Unlock()

	kind := EventVerifyFailure
	if resend {
		kind = EventResendFailure
	}
	if outcome.Strategy == apierr.StrategyLockout {
		kind = EventLockout
	}
	c.observe(kind, outcome.Code)
	c.cfg.Logger.Debug("otp call failed",
		slog.Bool("resend", resend),
		slog.String("code", string(outcome.Code)),
		slog.String("strategy", outcome.Strategy.String()),
	)

	if c.handlers.OnFailure != nil {
		c.handlers.OnFailure(outcome)
	}
}

func (c *Challenge) observe(kind EventKind, code apierr.Code) {
	if c.cfg.Observer != nil {
		c.cfg.Observer(Event{Kind: kind, Code: code})
	}
}
