package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authflow/api"
	"github.com/MrEthical07/authflow/apierr"
	"github.com/MrEthical07/authflow/flow"
	"github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/jwt"
	"github.com/MrEthical07/authflow/otp"
	"github.com/MrEthical07/authflow/permission"
	"github.com/MrEthical07/authflow/session"
	"github.com/MrEthical07/authflow/signal"
)

// Client owns the session of one portal user: the token pair, the backend
// client and the journeys that obtain tokens. It is safe for concurrent
// use.
type Client struct {
	config   Config
	logger   *slog.Logger
	store    *session.Store
	api      *api.Client
	nav      Navigator
	metrics  *Metrics
	audit    *audit.Dispatcher
	location *time.Location
	now      func() time.Time

	tokens   *signal.Cell[session.TokenPair]
	app      *signal.Cell[AppConfig]
	language *signal.Cell[string]
	langFn   func() string

	mu   sync.Mutex
	user *api.User
}

type clientDeps struct {
	config     Config
	storage    session.Storage
	httpClient *http.Client
	navigator  Navigator
	auditSink  AuditSink
	language   func() string
}

func newClient(deps clientDeps) (*Client, error) {
	cfg := deps.config
	loc, err := cfg.unlockLocation()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c := &Client{
		config:   cfg,
		logger:   cfg.Logger,
		store:    session.NewStore(deps.storage, cfg.Session.Key, cfg.Logger),
		nav:      deps.navigator,
		metrics:  NewMetrics(cfg.Metrics),
		location: loc,
		now:      time.Now,
		app:      signal.New(cfg.App),
		language: signal.New(cfg.API.Language),
		langFn:   deps.language,
	}
	c.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     cfg.Logger,
	}, deps.auditSink)

	base := &http.Client{Timeout: cfg.API.Timeout}
	if deps.httpClient != nil {
		copied := *deps.httpClient
		base = &copied
	}
	base.Transport = api.Chain(base.Transport,
		api.RequestID(),
		api.Language(c.Language),
		api.CleanQuery(),
		api.Bearer(c.accessToken),
		api.Unauthorized(c.onUnauthorized),
	)

	c.api, err = api.New(api.Config{
		BaseURL:    cfg.BaseURL(),
		Timeout:    cfg.API.Timeout,
		HTTPClient: base,
		Observer:   c.observeRequest,
		Logger:     cfg.Logger,
	})
	if err != nil {
		c.audit.Close()
		return nil, err
	}

	c.tokens = signal.New(c.store.Load(context.Background()))
	return c, nil
}

// API returns the backend client. Requests made through it carry the
// session's bearer token.
func (c *Client) API() *api.Client {
	return c.api
}

// Config returns the configuration the client was built with, with the
// current runtime app config.
func (c *Client) Config() Config {
	cfg := c.config
	cfg.App = c.app.Get()
	return cfg
}

// AppConfig returns the current runtime app config.
func (c *Client) AppConfig() AppConfig {
	return c.app.Get()
}

// SetAppConfig replaces the runtime app config. Journeys created afterwards
// use the new site key. The backend base URL is fixed at Build.
func (c *Client) SetAppConfig(app AppConfig) error {
	if err := app.validate(); err != nil {
		return err
	}
	c.app.Set(app)
	return nil
}

/*
====================================
TOKEN STATE
====================================
*/

// CurrentTokens returns the in-memory token pair. It is the sentinel when
// no session exists.
func (c *Client) CurrentTokens() session.TokenPair {
	return c.tokens.Get()
}

// SubscribeTokens registers fn for every replacement of the token pair.
func (c *Client) SubscribeTokens(fn func(session.TokenPair)) func() {
	return c.tokens.Subscribe(fn)
}

// Authenticated reports whether the session has an access token.
func (c *Client) Authenticated() bool {
	return c.tokens.Get().Authenticated()
}

// SetTokens replaces the token pair and persists it. Memory is updated even
// when persisting fails; the storage error is returned wrapped in
// ErrTokenPersist.
func (c *Client) SetTokens(ctx context.Context, pair session.TokenPair) error {
	c.tokens.Set(pair)
	if err := c.store.Save(ctx, pair); err != nil {
		c.logger.Warn("token record not saved", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrTokenPersist, err)
	}
	return nil
}

// clearSession resets the pair to the sentinel and drops the cached
// profile.
func (c *Client) clearSession(ctx context.Context) {
	c.tokens.Set(session.Sentinel())
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	c.metrics.Inc(MetricSessionCleared)

	if err := c.store.Clear(ctx); err != nil && !errors.Is(err, session.ErrNotFound) {
		c.logger.Warn("token record not cleared", slog.String("error", err.Error()))
	}
}

func (c *Client) accessToken() string {
	return c.tokens.Get().AccessToken
}

func (c *Client) onUnauthorized() {
	if !c.Authenticated() {
		return
	}
	c.metrics.Inc(MetricUnauthorized)
	c.clearSession(context.Background())
	c.emitAudit(context.Background(), audit.NewEvent(AuditSessionExpired, c.now()))
	c.navigate(c.config.API.LoginPath)
}

func (c *Client) navigate(path string) {
	if c.nav != nil {
		c.nav.Navigate(path)
	}
}

// Login submits credentials and stores the issued pair. It implements
// flow.Authenticator.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) error {
	res := flows.RunLogin(ctx, flows.LoginRequest{
		Username:     req.Username,
		Password:     req.Password,
		CaptchaToken: req.Captcha,
		CaptchaKey:   req.CaptchaKey,
	}, flows.LoginDeps{
		Request: func(ctx context.Context, in flows.LoginRequest) (flows.LoginResponse, error) {
			t, err := c.api.Login(ctx, api.LoginRequest{
				Username:   in.Username,
				Password:   in.Password,
				Captcha:    in.CaptchaToken,
				CaptchaKey: in.CaptchaKey,
			})
			return flows.LoginResponse{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, ExpiresIn: t.ExpiresIn}, err
		},
		Now:             c.now,
		ErrInvalidInput: ErrInvalidCredentials,
		ErrBadAnswer:    ErrLoginFailed,
	})

	ev := audit.NewEvent(AuditLoginSuccess, c.now())
	ev.Username = strings.TrimSpace(req.Username)
	if res.Failure != flows.LoginFailureNone {
		c.metrics.Inc(MetricLoginFailure)
		ev.EventType = AuditLoginFailure
		ev.Error = res.Err.Error()
		if apiErr, ok := apierr.As(res.Err); ok {
			ev.Code = string(apiErr.Code)
		}
		c.emitAudit(ctx, ev)
		return res.Err
	}

	c.metrics.Inc(MetricLoginSuccess)
	ev.Success = true
	c.emitAudit(ctx, ev)
	return c.SetTokens(ctx, res.Tokens)
}

// Refresh exchanges the refresh token for a new access token and persists
// the merged pair. Without a refresh token it returns ErrNoRefreshToken and
// sends nothing. Any other failure clears the session, navigates to the
// login page and returns the error.
func (c *Client) Refresh(ctx context.Context) error {
	res := flows.RunRefresh(ctx, flows.RefreshDeps{
		Current: c.CurrentTokens,
		Request: func(ctx context.Context, refreshToken string) (flows.RefreshResponse, error) {
			t, err := c.api.Refresh(ctx, refreshToken)
			return flows.RefreshResponse{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, ExpiresIn: t.ExpiresIn}, err
		},
		Now:          c.now,
		ErrNoToken:   ErrNoRefreshToken,
		ErrBadAnswer: ErrRefreshFailed,
	})

	switch res.Failure {
	case flows.RefreshFailureNone:
		c.metrics.Inc(MetricRefreshSuccess)
		ev := audit.NewEvent(AuditRefreshSuccess, c.now())
		ev.Success = true
		c.emitAudit(ctx, ev)
		return c.SetTokens(ctx, res.Tokens)
	case flows.RefreshFailureNoToken:
		c.metrics.Inc(MetricRefreshNoToken)
		return res.Err
	}

	c.metrics.Inc(MetricRefreshFailure)
	c.logger.Warn("token refresh failed", slog.String("error", res.Err.Error()))
	ev := audit.NewEvent(AuditRefreshFailure, c.now())
	ev.Error = res.Err.Error()
	c.emitAudit(ctx, ev)

	// A 401 answer has already cleared the session in the transport.
	if !c.CurrentTokens().IsSentinel() {
		c.clearSession(ctx)
		c.navigate(c.config.API.LoginPath)
	}
	if errors.Is(res.Err, ErrRefreshFailed) {
		return res.Err
	}
	return fmt.Errorf("%w: %w", ErrRefreshFailed, res.Err)
}

// Logout notifies the backend and clears the session whatever it answers.
// The backend error, if any, is returned.
func (c *Client) Logout(ctx context.Context) error {
	c.metrics.Inc(MetricLogout)
	err := flows.RunLogout(ctx, flows.LogoutDeps{
		Request: c.api.Logout,
		Clear:   func() { c.clearSession(ctx) },
	})

	ev := audit.NewEvent(AuditLogout, c.now())
	ev.Success = err == nil
	if err != nil {
		ev.Error = err.Error()
		c.logger.Debug("logout request failed", slog.String("error", err.Error()))
	}
	c.emitAudit(ctx, ev)
	return err
}

/*
====================================
FRESHNESS
====================================
*/

// ExpiresAt returns the access token's expiry: issuance time plus
// lifetime, or the token's exp claim when the pair carries no lifetime.
func (c *Client) ExpiresAt() (time.Time, bool) {
	pair := c.tokens.Get()
	if exp, ok := pair.ExpiresAt(); ok {
		return exp, true
	}
	return jwt.ExpiresAt(pair.AccessToken)
}

// IsExpired reports whether the access token expires within skew. A
// session without an access token is expired; a token without a known
// expiry is not.
func (c *Client) IsExpired(skew time.Duration) bool {
	if !c.Authenticated() {
		return true
	}
	exp, ok := c.ExpiresAt()
	if !ok {
		return false
	}
	return !c.now().Add(skew).Before(exp)
}

// EnsureFresh refreshes the session when the access token expires within
// Session.RefreshSkew. It returns ErrNotAuthenticated without a session.
func (c *Client) EnsureFresh(ctx context.Context) error {
	if !c.Authenticated() {
		return ErrNotAuthenticated
	}
	if !c.IsExpired(c.config.Session.RefreshSkew) {
		return nil
	}
	return c.Refresh(ctx)
}

/*
====================================
USER
====================================
*/

// RolesFromToken returns the realm roles of the current access token, or
// an empty slice. The token signature is not verified.
func (c *Client) RolesFromToken() []string {
	return jwt.RolesFromToken(c.accessToken())
}

// HasAnyRole reports whether the access token carries one of roles.
// CHECKER matches every checker level.
func (c *Client) HasAnyRole(roles ...string) bool {
	return permission.HasAny(c.RolesFromToken(), roles...)
}

// Me returns the user profile, fetching it once per session.
func (c *Client) Me(ctx context.Context) (api.User, error) {
	if !c.Authenticated() {
		return api.User{}, ErrNotAuthenticated
	}
	c.mu.Lock()
	cached := c.user
	c.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	u, err := c.api.Me(ctx)
	if err != nil {
		return api.User{}, err
	}
	c.mu.Lock()
	c.user = &u
	c.mu.Unlock()
	return u, nil
}

// Language returns the current UI language.
func (c *Client) Language() string {
	if c.langFn != nil {
		return c.langFn()
	}
	return c.language.Get()
}

// SetLanguage changes the language sent with API requests. It has no
// effect when the builder was given a language source.
func (c *Client) SetLanguage(lang string) {
	c.language.Set(api.NormalizeLanguage(lang))
}

/*
====================================
JOURNEYS
====================================
*/

func (c *Client) flowOptions() flow.Options {
	return flow.Options{
		Navigator: c.nav,
		Logger:    c.logger,
		Now:       c.now,
		Location:  c.location,
		OTP: otp.Config{
			CodeLength: c.config.OTP.CodeLength,
			Timer:      c.config.OTP.Timer,
			Tick:       c.config.OTP.Tick,
			Attempts:   c.config.OTP.Attempts,
		},
		Observer: c.observeFlow,
	}
}

// NewActivation starts an account activation journey. entryToken is the
// token of the activation link and may be empty.
func (c *Client) NewActivation(entryToken string) *flow.Activation {
	return flow.NewActivation(c.api, entryToken, c.flowOptions())
}

// NewForgotPassword starts a forgot-password journey.
func (c *Client) NewForgotPassword() *flow.ForgotPassword {
	return flow.NewForgotPassword(c.api, c.flowOptions())
}

// NewRegistration starts a self-registration journey.
func (c *Client) NewRegistration() *flow.Registration {
	return flow.NewRegistration(c.api, c.flowOptions())
}

// NewLogin returns the login form. Its captcha key is the current site key.
func (c *Client) NewLogin() *flow.Login {
	return flow.NewLogin(c, flow.LoginOptions{
		Options:    c.flowOptions(),
		CaptchaKey: c.app.Get().SiteKey,
		HomePath:   c.config.API.HomePath,
	})
}

/*
====================================
OBSERVABILITY
====================================
*/

func (c *Client) observeRequest(endpoint string, elapsed time.Duration, err error) {
	c.metrics.Observe(MetricRequestLatency, elapsed)
	if err != nil {
		c.metrics.Inc(MetricRequestFailure)
	}
}

func (c *Client) observeFlow(ev flow.Event) {
	switch ev.Kind {
	case flow.EventAdvanced:
		c.metrics.Inc(MetricFlowAdvanced)
		return
	case flow.EventFailed:
		c.metrics.Inc(MetricFlowFailure)
		if ev.Strategy == apierr.StrategyRedirect {
			c.metrics.Inc(MetricRedirect)
		}
		return
	case flow.EventCompleted:
		c.metrics.Inc(MetricFlowCompleted)
		c.emitAudit(context.Background(), c.flowEvent(AuditFlowCompleted, ev, true))
		return
	}

	switch ev.OTP {
	case otp.EventVerifySuccess:
		c.metrics.Inc(MetricOTPVerifySuccess)
		c.emitAudit(context.Background(), c.flowEvent(AuditOTPVerify, ev, true))
	case otp.EventVerifyFailure:
		c.metrics.Inc(MetricOTPVerifyFailure)
		c.emitAudit(context.Background(), c.flowEvent(AuditOTPVerify, ev, false))
	case otp.EventResendSuccess:
		c.metrics.Inc(MetricOTPResendSuccess)
		c.emitAudit(context.Background(), c.flowEvent(AuditOTPResend, ev, true))
	case otp.EventResendFailure:
		c.metrics.Inc(MetricOTPResendFailure)
		c.emitAudit(context.Background(), c.flowEvent(AuditOTPResend, ev, false))
	case otp.EventLockout:
		c.metrics.Inc(MetricOTPLockout)
		c.emitAudit(context.Background(), c.flowEvent(AuditOTPLockout, ev, false))
	}
}

func (c *Client) flowEvent(eventType string, ev flow.Event, success bool) audit.Event {
	out := audit.NewEvent(eventType, c.now())
	out.Flow = string(ev.Flow)
	out.Username = ev.Username
	out.Code = string(ev.Code)
	out.Success = success
	return out
}

func (c *Client) emitAudit(ctx context.Context, ev audit.Event) {
	c.audit.Emit(ctx, ev)
}

// MetricsSnapshot returns a copy of the client metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped on a full
// buffer.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// AuditFailed returns the number of audit events lost to a failing sink.
func (c *Client) AuditFailed() uint64 {
	return c.audit.Failed()
}

// Close flushes pending audit events. The session is kept.
func (c *Client) Close() {
	c.audit.Close()
}
