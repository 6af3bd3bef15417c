package flow

import (
	"context"
	"strings"

	"github.com/MrEthical07/authflow/api"
	"github.com/MrEthical07/authflow/apierr"
)

// DefaultHomePath is where a successful login navigates.
const DefaultHomePath = "/"

// Authenticator performs the login call and stores the issued tokens.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) error
}

var loginInline = apierr.Mapping{
	apierr.CodeBadCredentials: {Message: "The username or password you entered is incorrect."},
	// The backend's own text is shown for captcha failures.
	apierr.CodeInvalidRecaptcha: {},
}

var loginDialogs = apierr.Mapping{
	apierr.CodeUserLocked: {
		Title:   "Account locked",
		Message: "Your account has been locked. Please contact customer support.",
	},
}

// Login is the login form. It has a single step and no OTP.
type Login struct {
	*journey
	auth       Authenticator
	captchaKey string
	homePath   string
}

// LoginOptions extend Options for the login form.
type LoginOptions struct {
	Options
	// CaptchaKey is the site key sent with every attempt.
	CaptchaKey string
	// HomePath is the navigation target after login.
	HomePath string
}

// NewLogin returns a login form.
func NewLogin(auth Authenticator, opts LoginOptions) *Login {
	home := opts.HomePath
	if home == "" {
		home = DefaultHomePath
	}
	return &Login{
		journey:    newJourney(NameLogin, opts.Options, loginDialogs, loginInline),
		auth:       auth,
		captchaKey: opts.CaptchaKey,
		homePath:   home,
	}
}

// Submit logs in with the given credentials and captcha response. It
// returns false when nothing was sent.
func (l *Login) Submit(ctx context.Context, username, pw, captcha string) bool {
	username = strings.TrimSpace(username)
	if username == "" || pw == "" {
		return false
	}
	l.begin()

	err := l.auth.Login(ctx, api.LoginRequest{
		Username:   username,
		Password:   pw,
		Captcha:    captcha,
		CaptchaKey: l.captchaKey,
	})
	l.end()
	l.updateData(func(d *Data) { d.Username = username })
	if err != nil {
		l.fail(err)
		return true
	}

	l.DismissFailure()
	l.emit(Event{Kind: EventCompleted})
	if l.nav != nil {
		l.nav.Navigate(l.homePath)
	}
	return true
}
