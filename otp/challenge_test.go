package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authflow/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 2, 2, 12, 36, 0, 0, time.UTC)

type fakeBackend struct {
	mu          sync.Mutex
	verifyCalls []string
	resendCalls int
	verifyErr   error
	resendErr   error
	attempts    int
}

func (f *fakeBackend) verify(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls = append(f.verifyCalls, code)
	return f.verifyErr
}

func (f *fakeBackend) resend(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resendCalls++
	return f.attempts, f.resendErr
}

type harness struct {
	challenge *Challenge
	backend   *fakeBackend
	verified  int
	failures  []apierr.Outcome
	events    []Event
	now       time.Time
}

func newHarness(t *testing.T, mode Mode) *harness {
	t.Helper()
	h := &harness{backend: &fakeBackend{attempts: 2}, now: testNow}
	clock := func() time.Time { return h.now }
	h.challenge = NewChallenge(Config{
		Mode:       mode,
		Timer:      90 * time.Second,
		Tick:       time.Second,
		Classifier: apierr.NewClassifier(apierr.Config{Now: clock}),
		Now:        clock,
		Observer:   func(e Event) { h.events = append(h.events, e) },
	}, Handlers{
		Verify:     h.backend.verify,
		Resend:     h.backend.resend,
		OnVerified: func() { h.verified++ },
		OnFailure:  func(o apierr.Outcome) { h.failures = append(h.failures, o) },
	})
	return h
}

func lockedTemporarily() error {
	return apierr.New(apierr.CodeLockedTemporarily, "error").
		WithDetail(apierr.DetailUnlockAt, "2025-02-02 15:36:00.0")
}

func TestInitialState(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	st := h.challenge.Snapshot()

	assert.Equal(t, StatusRequired, st.Status)
	assert.Equal(t, DefaultAttempts, st.AttemptsRemaining)
	assert.False(t, h.challenge.Running())
}

func TestSubmitGuards(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	ctx := context.Background()

	assert.False(t, h.challenge.Submit(ctx))
	assert.Equal(t, StatusRequired, h.challenge.Snapshot().Status)

	for _, v := range []string{"1", "12", "123", "1234", "12345"} {
		h.challenge.SetValue(v)
		assert.False(t, h.challenge.Submit(ctx))
		assert.Equal(t, StatusIncomplete, h.challenge.Snapshot().Status, "value %q", v)
	}
	assert.Empty(t, h.backend.verifyCalls)
}

func TestSetValueStatus(t *testing.T) {
	h := newHarness(t, ModeFixedLength)

	h.challenge.SetValue("12")
	assert.Equal(t, StatusIncomplete, h.challenge.Snapshot().Status)
	h.challenge.SetValue("123456")
	assert.Equal(t, StatusValid, h.challenge.Snapshot().Status)
	h.challenge.SetValue("")
	assert.Equal(t, StatusRequired, h.challenge.Snapshot().Status)
}

func TestNonEmptyModeSkipsLengthCheck(t *testing.T) {
	h := newHarness(t, ModeNonEmpty)
	ctx := context.Background()

	h.challenge.SetValue("aaaa")
	assert.Equal(t, StatusValid, h.challenge.Snapshot().Status)
	assert.True(t, h.challenge.Submit(ctx))
	assert.Equal(t, []string{"aaaa"}, h.backend.verifyCalls)

	h.challenge.SetValue("")
	assert.False(t, h.challenge.Submit(ctx))
	assert.Len(t, h.backend.verifyCalls, 1)
}

func TestSubmitSuccess(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.challenge.SetValue("123456")

	require.True(t, h.challenge.Submit(context.Background()))
	st := h.challenge.Snapshot()
	assert.Equal(t, StatusValid, st.Status)
	assert.Equal(t, "", st.Value)
	assert.False(t, st.Loading)
	assert.Equal(t, 1, h.verified)
	assert.Equal(t, []Event{{Kind: EventVerifySuccess}}, h.events)
}

func TestSubmitFailuresClearValue(t *testing.T) {
	cases := []struct {
		code apierr.Code
		want Status
	}{
		{apierr.CodeInvalidOTP, StatusInvalid},
		{apierr.CodeInvalidAC, StatusInvalid},
		{apierr.CodeExpiredOTP, StatusExpired},
		{apierr.CodeMaxAttempts, StatusMaxAttempts},
		{apierr.CodeLocked, StatusLocked},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			h := newHarness(t, ModeFixedLength)
			h.backend.verifyErr = apierr.New(tc.code, "error")
			h.challenge.SetValue("123456")

			require.True(t, h.challenge.Submit(context.Background()))
			st := h.challenge.Snapshot()
			assert.Equal(t, tc.want, st.Status)
			assert.Equal(t, "", st.Value)
			assert.False(t, st.Loading)
			assert.Zero(t, h.verified)
			require.Len(t, h.failures, 1)
			assert.Equal(t, tc.code, h.failures[0].Code)
		})
	}
}

func TestLockedTemporarilyPreservesValue(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.backend.verifyErr = lockedTemporarily()
	h.challenge.SetValue("123456")

	require.True(t, h.challenge.Submit(context.Background()))
	st := h.challenge.Snapshot()
	assert.Equal(t, "123456", st.Value)
	assert.Equal(t, StatusValid, st.Status)
	require.NotNil(t, st.Lockout)
	assert.Equal(t, apierr.LockedTime{Time: 3, IsHours: true}, st.Lockout.Remaining)
	assert.Equal(t, EventLockout, h.events[len(h.events)-1].Kind)

	assert.False(t, h.challenge.Submit(context.Background()), "lockout must block submission")
	assert.Len(t, h.backend.verifyCalls, 1)

	h.now = testNow.Add(3 * time.Hour)
	h.challenge.Tick()
	assert.Nil(t, h.challenge.Snapshot().Lockout)

	h.backend.verifyErr = nil
	assert.True(t, h.challenge.Submit(context.Background()))
}

func TestMaxAttemptsIsStickyUntilResend(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.backend.verifyErr = apierr.New(apierr.CodeMaxAttempts, "max attempts")
	h.challenge.SetValue("123456")
	h.challenge.Submit(context.Background())

	h.challenge.SetValue("1234")
	assert.Equal(t, StatusMaxAttempts, h.challenge.Snapshot().Status)
	h.challenge.SetValue("654321")
	assert.False(t, h.challenge.Submit(context.Background()))
	assert.Len(t, h.backend.verifyCalls, 1)

	for i := 0; i < 200; i++ {
		h.challenge.Tick()
	}
	assert.Equal(t, StatusMaxAttempts, h.challenge.Snapshot().Status)

	require.True(t, h.challenge.Resend(context.Background()))
	assert.Equal(t, StatusAttempts, h.challenge.Snapshot().Status)
	h.challenge.SetValue("654321")
	assert.Equal(t, StatusValid, h.challenge.Snapshot().Status)
}

func TestResendSuccessRestartsTimer(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	var sawLocked bool
	h.challenge.Subscribe(func(st State) {
		if st.ResendLocked {
			sawLocked = true
		}
	})

	require.True(t, h.challenge.Resend(context.Background()))
	st := h.challenge.Snapshot()
	assert.True(t, sawLocked, "resendLocked must be set while the call is in flight")
	assert.False(t, st.ResendLocked)
	assert.Equal(t, StatusAttempts, st.Status)
	assert.Equal(t, 2, st.AttemptsRemaining)
	assert.True(t, h.challenge.Running())
	assert.Equal(t, 89, st.TimerSecondsRemaining)
	assert.False(t, st.ResendEnabled)
}

func TestResendLockedTemporarilyKeepsTimer(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.challenge.RestartTimer(RestartOptions{SkipInitialTick: true})
	for i := 0; i < 10; i++ {
		h.challenge.Tick()
	}
	h.backend.resendErr = lockedTemporarily()

	require.True(t, h.challenge.Resend(context.Background()))
	st := h.challenge.Snapshot()
	assert.Equal(t, 80, st.TimerSecondsRemaining)
	assert.False(t, st.ResendLocked)
	require.NotNil(t, st.Lockout)
	require.Len(t, h.failures, 1)
	assert.Equal(t, apierr.StrategyLockout, h.failures[0].Strategy)
}

func TestResendLockedRestartsTimer(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.challenge.RestartTimer(RestartOptions{SkipInitialTick: true})
	for i := 0; i < 30; i++ {
		h.challenge.Tick()
	}
	h.backend.resendErr = apierr.New(apierr.CodeLocked, "otp locked")

	require.True(t, h.challenge.Resend(context.Background()))
	assert.Equal(t, 89, h.challenge.Snapshot().TimerSecondsRemaining)
	assert.False(t, h.challenge.Snapshot().ResendLocked)
}

func TestExpiredTokenReportsRedirect(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.backend.verifyErr = apierr.New(apierr.CodeExpiredToken, "expired token")
	h.challenge.SetValue("123456")

	h.challenge.Submit(context.Background())
	require.Len(t, h.failures, 1)
	assert.Equal(t, apierr.StrategyRedirect, h.failures[0].Strategy)
	assert.Equal(t, "/login", h.failures[0].RedirectTo)
}

func TestCountdownEnablesResend(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.challenge.RestartTimer(RestartOptions{SkipInitialTick: true})
	assert.Equal(t, 90, h.challenge.Snapshot().TimerSecondsRemaining)

	for i := 0; i < 89; i++ {
		h.challenge.Tick()
	}
	assert.False(t, h.challenge.Snapshot().ResendEnabled)
	h.challenge.Tick()

	st := h.challenge.Snapshot()
	assert.True(t, st.ResendEnabled)
	assert.Equal(t, 0, st.TimerSecondsRemaining)
	assert.False(t, h.challenge.Running())
}

func TestRestartTimerOptions(t *testing.T) {
	h := newHarness(t, ModeFixedLength)

	h.challenge.RestartTimer(RestartOptions{})
	st := h.challenge.Snapshot()
	assert.False(t, st.ResendLocked)
	assert.False(t, st.ResendDisabled)
	assert.False(t, st.ResendEnabled)
	assert.Equal(t, 89, st.TimerSecondsRemaining)

	h.challenge.RestartTimer(RestartOptions{DisableResend: true, SkipInitialTick: true})
	st = h.challenge.Snapshot()
	assert.True(t, st.ResendDisabled)
	assert.Equal(t, 90, st.TimerSecondsRemaining)

	for i := 0; i < 90; i++ {
		h.challenge.Tick()
	}
	h.challenge.RestartTimer(RestartOptions{KeepResendEnabled: true})
	assert.True(t, h.challenge.Snapshot().ResendEnabled)
}

func TestRunDrivesCountdown(t *testing.T) {
	c := NewChallenge(Config{Timer: 30 * time.Millisecond, Tick: 10 * time.Millisecond}, Handlers{})
	c.RestartTimer(RestartOptions{SkipInitialTick: true})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool {
		return c.Snapshot().ResendEnabled
	}, time.Second, 5*time.Millisecond)
}

func TestSubmitWithoutHandlerIsSuppressed(t *testing.T) {
	c := NewChallenge(Config{}, Handlers{})
	c.SetValue("123456")
	assert.False(t, c.Submit(context.Background()))
	assert.False(t, c.Resend(context.Background()))
}

func TestOverlappingResendAndVerifyLastResponseWins(t *testing.T) {
	verifyRelease := make(chan struct{})
	resendRelease := make(chan struct{})
	c := NewChallenge(Config{}, Handlers{
		Verify: func(context.Context, string) error {
			<-verifyRelease
			return apierr.New(apierr.CodeInvalidOTP, "wrong code")
		},
		Resend: func(context.Context) (int, error) {
			<-resendRelease
			return 1, nil
		},
	})
	c.SetValue("123456")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.Submit(context.Background()) }()
	go func() { defer wg.Done(); c.Resend(context.Background()) }()

	require.Eventually(t, func() bool {
		st := c.Snapshot()
		return st.Loading && st.ResendLocked
	}, time.Second, time.Millisecond)

	close(resendRelease)
	require.Eventually(t, func() bool { return c.Snapshot().Status == StatusAttempts }, time.Second, time.Millisecond)
	close(verifyRelease)
	wg.Wait()

	assert.Equal(t, StatusInvalid, c.Snapshot().Status)
}

func TestOverlappingSubmitsAreBothVerified(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{}, 2)
	c := NewChallenge(Config{}, Handlers{
		Verify: func(context.Context, string) error {
			entered <- struct{}{}
			<-release
			return nil
		},
	})
	c.SetValue("123456")

	results := make(chan bool, 2)
	go func() { results <- c.Submit(context.Background()) }()
	<-entered
	go func() { results <- c.Submit(context.Background()) }()
	<-entered

	release <- struct{}{}
	require.True(t, <-results)
	assert.True(t, c.Snapshot().Loading)

	release <- struct{}{}
	require.True(t, <-results)
	assert.False(t, c.Snapshot().Loading)
}

func TestSetAttemptsRemainingKeepsStatus(t *testing.T) {
	h := newHarness(t, ModeFixedLength)
	h.challenge.SetValue("12")
	h.challenge.SetAttemptsRemaining(5)
	st := h.challenge.Snapshot()
	assert.Equal(t, 5, st.AttemptsRemaining)
	assert.Equal(t, StatusIncomplete, st.Status)

	h.challenge.SetAttemptsRemaining(-1)
	assert.Equal(t, 0, h.challenge.Snapshot().AttemptsRemaining)
}
