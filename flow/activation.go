package flow

import (
	"context"
	"strings"

	"github.com/MrEthical07/authflow/api"
	"github.com/MrEthical07/authflow/apierr"
	"github.com/MrEthical07/authflow/otp"
)

// Activation steps.
const (
	ActivationStepUsername = 1
	ActivationStepOTP      = 2
	ActivationStepPassword = 3
	ActivationStepDone     = 4
)

// ActivationBackend is the backend surface of account activation.
type ActivationBackend interface {
	ActivationUserDetails(ctx context.Context, username string) (api.MaskedContact, error)
	ActivationResend(ctx context.Context, username string) (api.Attempts, error)
	ActivationVerify(ctx context.Context, username, code string) error
	ActivationSetPassword(ctx context.Context, username, password string) error
}

// Activation is the account activation journey: username, activation code,
// first password.
type Activation struct {
	*journey
	backend   ActivationBackend
	challenge *otp.Challenge
}

// NewActivation starts an activation journey. entryToken is the token of
// the activation link; when it decodes, its contact details prefill the
// OTP step.
func NewActivation(backend ActivationBackend, entryToken string, opts Options) *Activation {
	a := &Activation{
		journey: newJourney(NameActivation, opts, nil, mergeMappings(otpInline, passwordInline)),
		backend: backend,
	}
	a.challenge = a.newChallenge(opts, otp.ModeNonEmpty, otp.Handlers{
		Verify: func(ctx context.Context, code string) error {
			return a.backend.ActivationVerify(ctx, a.Data().Username, code)
		},
		Resend: func(ctx context.Context) (int, error) {
			resp, err := a.backend.ActivationResend(ctx, a.Data().Username)
			if err != nil {
				return 0, err
			}
			a.updateData(func(d *Data) { d.Attempts = resp.NumberOfAttempts })
			return resp.NumberOfAttempts, nil
		},
	})

	if entryToken != "" {
		if tok := ExtractTokenData(entryToken, a.logger); tok != nil {
			a.updateData(func(d *Data) {
				d.UserDetails = UserDetails{Phone: PhoneDigits(tok.Mobile), Email: tok.Email}
			})
		}
	}
	return a
}

// OTP returns the activation code challenge.
func (a *Activation) OTP() *otp.Challenge {
	return a.challenge
}

// SubmitUsername looks the account up and moves to the code step. Unknown
// users and companies advance as well so the form does not reveal which
// accounts exist. It returns false when nothing was sent.
func (a *Activation) SubmitUsername(ctx context.Context, username string) bool {
	username = strings.TrimSpace(username)
	if username == "" || a.Step() != ActivationStepUsername {
		return false
	}
	a.begin()

	resp, err := a.backend.ActivationUserDetails(ctx, username)
	a.end()

	switch {
	case err == nil:
		a.updateData(func(d *Data) {
			d.Username = username
			if resp.MaskedMobileNumber != "" {
				d.UserDetails.Phone = PhoneDigits(resp.MaskedMobileNumber)
			}
			if resp.MaskedEmail != "" {
				d.UserDetails.Email = resp.MaskedEmail
			}
		})
	case apierr.IsCode(err, apierr.CodeInvalidUser), apierr.IsCode(err, apierr.CodeInvalidCompanyID):
		a.updateData(func(d *Data) { d.Username = username })
	default:
		a.fail(err)
		return true
	}

	a.DismissFailure()
	a.challenge.RestartTimer(otp.RestartOptions{})
	a.advance()
	return true
}

// SetPassword sets the first password once the local rules pass.
func (a *Activation) SetPassword(ctx context.Context, pw, confirm string) bool {
	if a.Step() != ActivationStepPassword || !a.CheckPassword(pw, confirm) {
		return false
	}
	a.begin()

	err := a.backend.ActivationSetPassword(ctx, a.Data().Username, pw)
	a.end()
	if err != nil {
		a.failPassword(err)
		return true
	}
	a.DismissFailure()
	a.complete()
	return true
}
