package flow

import (
	"log/slog"
	"time"

	"github.com/MrEthical07/authflow/apierr"
	"github.com/MrEthical07/authflow/otp"
	"github.com/MrEthical07/authflow/password"
	"github.com/MrEthical07/authflow/signal"
)

// Name identifies a journey in events and logs.
type Name string

const (
	NameActivation     Name = "activation"
	NameForgotPassword Name = "forgot_password"
	NameRegistration   Name = "registration"
	NameLogin          Name = "login"
)

// Navigator performs route changes requested by a journey.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// EventKind classifies journey events.
type EventKind int

const (
	// EventAdvanced is emitted after every step change.
	EventAdvanced EventKind = iota
	// EventFailed is emitted for every classified failure.
	EventFailed
	// EventOTP forwards an OTP challenge event.
	EventOTP
	// EventCompleted is emitted when a journey reaches its final step.
	EventCompleted
)

// Event is a journey event for audit and metrics.
type Event struct {
	Flow     Name
	Kind     EventKind
	Step     int
	Username string
	Code     apierr.Code
	Strategy apierr.Strategy
	OTP      otp.EventKind
}

// Options configure a journey. Zero values select defaults.
type Options struct {
	Navigator Navigator
	Logger    *slog.Logger
	Now       func() time.Time
	// Location interprets unlock timestamps without a zone.
	Location *time.Location
	// OTP tunes the journey's challenge. Mode, Classifier, Observer and
	// Logger are set by the journey.
	OTP    otp.Config
	Policy *password.Policy
	// Dialogs and Inline override the journey's default mapping per code.
	Dialogs  apierr.Mapping
	Inline   apierr.Mapping
	Observer func(Event)
}

// UserDetails are the contact details shown on the OTP step. Phone holds
// only the last digits of the number.
type UserDetails struct {
	Phone string
	Email string
}

// Data is the journey-scoped derived state.
type Data struct {
	Username    string
	OTPToken    string
	ResetToken  string
	UserDetails UserDetails
	Attempts    int
}

// PasswordState is the live validation state of a password form. Resets
// increments each time the backend rejects the password and the form must
// be cleared.
type PasswordState struct {
	Rules    []password.RuleStatus
	Mismatch bool
	Resets   int
}

var genericDialogs = apierr.Mapping{
	apierr.CodeServerError: {
		Title:   "Something went wrong",
		Message: "We could not complete your request. Please try again later.",
	},
	apierr.CodeBadGateway: {
		Title:   "Service unavailable",
		Message: "The service is temporarily unavailable. Please try again later.",
	},
}

var otpInline = apierr.Mapping{
	apierr.CodeInvalidOTP:  {Message: "The code you entered is incorrect."},
	apierr.CodeInvalidAC:   {Message: "The activation code you entered is incorrect."},
	apierr.CodeExpiredOTP:  {Message: "The code has expired. Please request a new one."},
	apierr.CodeMaxAttempts: {Message: "You have reached the maximum number of attempts. Please request a new code."},
	apierr.CodeLocked:      {Message: "Too many codes requested. Please wait before trying again."},
}

var passwordInline = apierr.Mapping{
	apierr.CodeRepeatedPassword: {Message: "Your new password must be different from your recent passwords."},
}

func mergeMappings(maps ...apierr.Mapping) apierr.Mapping {
	out := apierr.Mapping{}
	for _, m := range maps {
		for code, msg := range m {
			out[code] = msg
		}
	}
	return out
}

// journey holds what every journey shares.
type journey struct {
	*Wizard
	name       Name
	classifier *apierr.Classifier
	nav        Navigator
	logger     *slog.Logger
	observer   func(Event)
	policy     *password.Policy
	data       *signal.Cell[Data]
	failure    *signal.Cell[*apierr.Outcome]
	passwords  *signal.Cell[PasswordState]
}

func newJourney(name Name, opts Options, dialogs, inline apierr.Mapping) *journey {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Policy
	if policy == nil {
		policy = password.Default()
	}
	attempts := opts.OTP.Attempts
	if attempts <= 0 {
		attempts = otp.DefaultAttempts
	}

	return &journey{
		Wizard: NewWizard(),
		name:   name,
		classifier: apierr.NewClassifier(apierr.Config{
			Dialogs:  mergeMappings(genericDialogs, dialogs, opts.Dialogs),
			Inline:   mergeMappings(inline, opts.Inline),
			Location: opts.Location,
			Now:      opts.Now,
		}),
		nav:       opts.Navigator,
		logger:    logger.With(slog.String("flow", string(name))),
		observer:  opts.Observer,
		policy:    policy,
		data:      signal.New(Data{Attempts: attempts}),
		failure:   signal.New[*apierr.Outcome](nil),
		passwords: signal.New(PasswordState{}),
	}
}

// Data returns the journey data.
func (j *journey) Data() Data {
	return j.data.Get()
}

// SubscribeData registers fn for journey data changes.
func (j *journey) SubscribeData(fn func(Data)) func() {
	return j.data.Subscribe(fn)
}

// Failure returns the last classified failure, or nil.
func (j *journey) Failure() *apierr.Outcome {
	return j.failure.Get()
}

// SubscribeFailure registers fn for failures. fn receives nil when a
// failure is dismissed.
func (j *journey) SubscribeFailure(fn func(*apierr.Outcome)) func() {
	return j.failure.Subscribe(fn)
}

// DismissFailure clears the displayed failure.
func (j *journey) DismissFailure() {
	j.failure.Set(nil)
}

// Passwords returns the password form state.
func (j *journey) Passwords() PasswordState {
	return j.passwords.Get()
}

// CheckPassword updates the live password validation state and reports
// whether the pair can be submitted.
func (j *journey) CheckPassword(pw, confirm string) bool {
	rules := j.policy.Check(pw)
	mismatch := password.Mismatch(pw, confirm)
	j.passwords.Update(func(st PasswordState) PasswordState {
		st.Rules = rules
		st.Mismatch = mismatch
		return st
	})

	for _, r := range rules {
		if !r.Passed {
			return false
		}
	}
	return confirm != "" && pw == confirm
}

func (j *journey) updateData(fn func(*Data)) {
	j.data.Update(func(d Data) Data {
		fn(&d)
		return d
	})
}

func (j *journey) emit(ev Event) {
	if j.observer == nil {
		return
	}
	ev.Flow = j.name
	if ev.Step == 0 {
		ev.Step = j.Step()
	}
	if ev.Username == "" {
		ev.Username = j.data.Get().Username
	}
	j.observer(ev)
}

func (j *journey) advance() {
	step := j.Next()
	j.emit(Event{Kind: EventAdvanced, Step: step})
}

func (j *journey) complete() {
	step := j.Next()
	j.emit(Event{Kind: EventCompleted, Step: step})
}

// fail classifies err and presents the outcome.
func (j *journey) fail(err error) apierr.Outcome {
	out := j.classifier.Classify(err)
	j.present(out)
	return out
}

func (j *journey) present(out apierr.Outcome) {
	j.failure.Set(&out)
	j.emit(Event{Kind: EventFailed, Code: out.Code, Strategy: out.Strategy})
	j.logger.Debug("step failed",
		slog.Int("step", j.Step()),
		slog.String("code", string(out.Code)),
		slog.String("strategy", out.Strategy.String()),
	)
	if out.Strategy == apierr.StrategyRedirect && j.nav != nil {
		j.nav.Navigate(out.RedirectTo)
	}
}

// failPassword presents a password step failure. A repeated password
// clears the form.
func (j *journey) failPassword(err error) {
	out := j.fail(err)
	if out.Code == apierr.CodeRepeatedPassword {
		j.passwords.Update(func(st PasswordState) PasswordState {
			st.Rules = nil
			st.Mismatch = false
			st.Resets++
			return st
		})
	}
}

// newChallenge builds the OTP challenge of the journey's OTP step. A
// verified code advances the wizard.
func (j *journey) newChallenge(opts Options, mode otp.Mode, handlers otp.Handlers) *otp.Challenge {
	cfg := opts.OTP
	cfg.Mode = mode
	cfg.Classifier = j.classifier
	cfg.Logger = j.logger
	if cfg.Now == nil {
		cfg.Now = opts.Now
	}
	cfg.Observer = func(ev otp.Event) {
		j.emit(Event{Kind: EventOTP, OTP: ev.Kind, Code: ev.Code})
	}

	verified := handlers.OnVerified
	handlers.OnVerified = func() {
		j.DismissFailure()
		if verified != nil {
			verified()
		}
		j.advance()
	}
	handlers.OnFailure = j.present
	return otp.NewChallenge(cfg, handlers)
}
