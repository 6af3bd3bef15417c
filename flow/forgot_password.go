package flow

import (
	"context"
	"strings"

	"github.com/MrEthical07/authflow/api"
	"github.com/MrEthical07/authflow/apierr"
	"github.com/MrEthical07/authflow/otp"
)

// Forgot-password steps.
const (
	ForgotStepUser     = 1
	ForgotStepOTP      = 2
	ForgotStepPassword = 3
	ForgotStepDone     = 4
)

// ForgotPasswordBackend is the backend surface of the forgot-password
// journey.
type ForgotPasswordBackend interface {
	ValidateUser(ctx context.Context, username, companyID string) (api.ValidatedUser, error)
	SendOTP(ctx context.Context, username, token string) (api.Attempts, error)
	ResendOTP(ctx context.Context, username, token string) (api.Attempts, error)
	VerifyOTP(ctx context.Context, username, otp, token string) (api.FlowToken, error)
	ForgetPassword(ctx context.Context, username, password, token string) error
}

var forgotInline = apierr.Mapping{
	apierr.CodeInvalidUser:      {Message: "The username or company ID you entered is incorrect."},
	apierr.CodeInvalidCompanyID: {Message: "The username or company ID you entered is incorrect."},
}

// ForgotPassword is the forgot-password journey: identify the user, verify
// an OTP, set a new password.
type ForgotPassword struct {
	*journey
	backend   ForgotPasswordBackend
	challenge *otp.Challenge
}

// NewForgotPassword starts a forgot-password journey.
func NewForgotPassword(backend ForgotPasswordBackend, opts Options) *ForgotPassword {
	f := &ForgotPassword{
		journey: newJourney(NameForgotPassword, opts, nil, mergeMappings(forgotInline, otpInline, passwordInline)),
		backend: backend,
	}
	f.challenge = f.newChallenge(opts, otp.ModeFixedLength, otp.Handlers{
		Verify: func(ctx context.Context, code string) error {
			d := f.Data()
			resp, err := f.backend.VerifyOTP(ctx, d.Username, code, d.OTPToken)
			if err != nil {
				return err
			}
			f.updateData(func(d *Data) { d.ResetToken = resp.Token })
			return nil
		},
		Resend: func(ctx context.Context) (int, error) {
			d := f.Data()
			resp, err := f.backend.ResendOTP(ctx, d.Username, d.OTPToken)
			if err != nil {
				return 0, err
			}
			f.updateData(func(d *Data) { d.Attempts = resp.NumberOfAttempts })
			return resp.NumberOfAttempts, nil
		},
	})
	return f
}

// OTP returns the journey's OTP challenge.
func (f *ForgotPassword) OTP() *otp.Challenge {
	return f.challenge
}

// SubmitUser validates the user, sends the first OTP and moves to the OTP
// step. It returns false when nothing was sent.
func (f *ForgotPassword) SubmitUser(ctx context.Context, username, companyID string) bool {
	username = strings.TrimSpace(username)
	companyID = strings.TrimSpace(companyID)
	if username == "" || companyID == "" || f.Step() != ForgotStepUser {
		return false
	}
	f.begin()
	defer f.end()

	user, err := f.backend.ValidateUser(ctx, username, companyID)
	if err != nil {
		f.fail(err)
		return true
	}
	f.updateData(func(d *Data) {
		d.Username = username
		d.OTPToken = user.Token
		d.UserDetails = UserDetails{Phone: PhoneDigits(user.MaskedMobileNumber), Email: user.MaskedEmail}
	})

	sent, err := f.backend.SendOTP(ctx, username, user.Token)
	if err != nil {
		f.fail(err)
		return true
	}
	f.updateData(func(d *Data) { d.Attempts = sent.NumberOfAttempts })
	f.challenge.SetAttemptsRemaining(sent.NumberOfAttempts)

	f.DismissFailure()
	f.challenge.RestartTimer(otp.RestartOptions{})
	f.advance()
	return true
}

// ResetPassword sets the new password with the token issued by the OTP
// step.
func (f *ForgotPassword) ResetPassword(ctx context.Context, pw, confirm string) bool {
	if f.Step() != ForgotStepPassword || !f.CheckPassword(pw, confirm) {
		return false
	}
	f.begin()

	d := f.Data()
	err := f.backend.ForgetPassword(ctx, d.Username, pw, d.ResetToken)
	f.end()
	if err != nil {
		f.failPassword(err)
		return true
	}
	f.DismissFailure()
	f.complete()
	return true
}
