package flow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authflow/api"
	"github.com/MrEthical07/authflow/apierr"
	"github.com/MrEthical07/authflow/otp"
)

// Registration steps.
const (
	RegistrationStepIntro = 1
	RegistrationStepForm  = 2
	RegistrationStepOTP   = 3
	RegistrationStepDone  = 4
)

// RegistrationFormName is the file name of the downloaded form.
const RegistrationFormName = "RegistrationForm.pdf"

// ErrFormDecode is classified when the form is not valid base64.
var ErrFormDecode = errors.New("registration form decode failure")

// RegistrationBackend is the backend surface of registration.
type RegistrationBackend interface {
	Register(ctx context.Context, companyID, mobileNumber string) (api.Registration, error)
	ResendOTP(ctx context.Context, username, token string) (api.Attempts, error)
	VerifyOTP(ctx context.Context, username, otp, token string) (api.FlowToken, error)
	RegistrationForm(ctx context.Context, username, token string) (api.RegistrationForm, error)
}

var registrationInline = apierr.Mapping{
	apierr.CodeInvalidCompanyID: {Message: "The company ID you entered is incorrect."},
}

// Form is a downloaded registration form.
type Form struct {
	Name string
	Data []byte
}

// Registration is the self-registration journey: intro, company and mobile
// number, OTP, form download.
type Registration struct {
	*journey
	backend   RegistrationBackend
	challenge *otp.Challenge
}

// NewRegistration starts a registration journey.
func NewRegistration(backend RegistrationBackend, opts Options) *Registration {
	r := &Registration{
		journey: newJourney(NameRegistration, opts, nil, mergeMappings(registrationInline, otpInline)),
		backend: backend,
	}
	r.challenge = r.newChallenge(opts, otp.ModeFixedLength, otp.Handlers{
		Verify: func(ctx context.Context, code string) error {
			d := r.Data()
			resp, err := r.backend.VerifyOTP(ctx, d.Username, code, d.OTPToken)
			if err != nil {
				return err
			}
			if resp.Token != "" {
				r.updateData(func(d *Data) { d.OTPToken = resp.Token })
			}
			return nil
		},
		Resend: func(ctx context.Context) (int, error) {
			d := r.Data()
			resp, err := r.backend.ResendOTP(ctx, d.Username, d.OTPToken)
			if err != nil {
				return 0, err
			}
			r.updateData(func(d *Data) { d.Attempts = resp.NumberOfAttempts })
			return resp.NumberOfAttempts, nil
		},
	})
	return r
}

// OTP returns the journey's OTP challenge.
func (r *Registration) OTP() *otp.Challenge {
	return r.challenge
}

// GetStarted leaves the intro step.
func (r *Registration) GetStarted() bool {
	if r.Step() != RegistrationStepIntro {
		return false
	}
	r.advance()
	return true
}

// Register submits the company ID and mobile number and moves to the OTP
// step. The company ID is the journey's username from here on.
func (r *Registration) Register(ctx context.Context, companyID, mobileNumber string) bool {
	companyID = strings.TrimSpace(companyID)
	mobileNumber = strings.TrimSpace(mobileNumber)
	if companyID == "" || mobileNumber == "" || r.Step() != RegistrationStepForm {
		return false
	}
	r.begin()

	resp, err := r.backend.Register(ctx, companyID, mobileNumber)
	r.end()
	if err != nil {
		r.fail(err)
		return true
	}

	r.updateData(func(d *Data) {
		d.Username = companyID
		d.OTPToken = resp.Token
		d.UserDetails.Phone = PhoneDigits(resp.MaskedMobileNumber)
	})
	r.DismissFailure()
	r.challenge.RestartTimer(otp.RestartOptions{})
	r.advance()
	return true
}

// DownloadForm fetches and decodes the registration form. It is available
// once the OTP step is done.
func (r *Registration) DownloadForm(ctx context.Context) (Form, bool) {
	if r.Step() != RegistrationStepDone {
		return Form{}, false
	}
	r.begin()

	d := r.Data()
	resp, err := r.backend.RegistrationForm(ctx, d.Username, d.OTPToken)
	r.end()
	if err != nil {
		r.fail(err)
		return Form{}, false
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(resp.File))
	if err != nil {
		r.fail(fmt.Errorf("%w: %v", ErrFormDecode, err))
		return Form{}, false
	}
	r.emit(Event{Kind: EventCompleted})
	return Form{Name: RegistrationFormName, Data: data}, true
}
