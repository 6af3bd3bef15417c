package apierr

import (
	"fmt"
	"strings"
	"time"
)

// Strategy is how a classified error is presented.
type Strategy int

const (
	// StrategyInline shows a field-level message without navigation.
	StrategyInline Strategy = iota
	// StrategyDialog opens a blocking dialog the user must acknowledge.
	StrategyDialog
	// StrategyRedirect navigates to the login entry point.
	StrategyRedirect
	// StrategyLockout shows the remaining lock duration and blocks submission.
	StrategyLockout
)

func (s Strategy) String() string {
	switch s {
	case StrategyInline:
		return "inline"
	case StrategyDialog:
		return "dialog"
	case StrategyRedirect:
		return "redirect"
	case StrategyLockout:
		return "lockout"
	default:
		return "unknown"
	}
}

// Message is a title/message pair rendered by the presentation layer.
type Message struct {
	Title   string
	Message string
}

// Mapping maps error codes to the text shown for them.
type Mapping map[Code]Message

// DefaultLoginPath is the login entry point used for redirects.
const DefaultLoginPath = "/login"

// Config configures a Classifier. Dialogs and Inline are per-flow mappings;
// a code present in both is shown as a dialog.
type Config struct {
	Dialogs   Mapping
	Inline    Mapping
	LoginPath string
	Fallback  Message
	Lockout   Message
	Location  *time.Location
	Now       func() time.Time
}

// Lockout describes an active timed lockout.
type Lockout struct {
	Until     time.Time
	Remaining LockedTime
}

// Elapsed reports whether the lockout is over at now.
func (l *Lockout) Elapsed(now time.Time) bool {
	return l == nil || !now.Before(l.Until)
}

// Outcome is the classified, user-observable result of a failed call.
type Outcome struct {
	Strategy   Strategy
	Code       Code
	Title      string
	Message    string
	RedirectTo string
	Lockout    *Lockout
	Err        *APIError
}

// Classifier maps APIErrors to Outcomes.
type Classifier struct {
	cfg Config
}

var defaultFallback = Message{
	Title:   "Something went wrong",
	Message: "Something went wrong. Please try again later.",
}

var defaultLockout = Message{
	Title:   "Temporarily locked",
	Message: "Too many attempts. Please try again in %s.",
}

// NewClassifier returns a Classifier for cfg.
func NewClassifier(cfg Config) *Classifier {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if strings.TrimSpace(cfg.Fallback.Message) == "" {
		cfg.Fallback.Message = defaultFallback.Message
	}
	if strings.TrimSpace(cfg.Fallback.Title) == "" {
		cfg.Fallback.Title = defaultFallback.Title
	}
	if cfg.Lockout.Title == "" {
		cfg.Lockout.Title = defaultLockout.Title
	}
	if cfg.Lockout.Message == "" {
		cfg.Lockout.Message = defaultLockout.Message
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Classifier{cfg: cfg}
}

// LoginPath returns the redirect target for expired sessions.
func (c *Classifier) LoginPath() string {
	return c.cfg.LoginPath
}

// Classify converts err into an Outcome. Non-API errors are treated as
// server errors. Classify(nil) returns the zero Outcome.
func (c *Classifier) Classify(err error) Outcome {
	apiErr := From(err)
	if apiErr == nil {
		return Outcome{}
	}

	switch apiErr.Code {
	case CodeExpiredToken:
		return c.redirect(apiErr)
	case CodeLockedTemporarily:
		if out, ok := c.lockout(apiErr); ok {
			return out
		}
	}

	if msg, ok := c.cfg.Dialogs[apiErr.Code]; ok {
		return Outcome{
			Strategy: StrategyDialog,
			Code:     apiErr.Code,
			Title:    c.nonBlank(msg.Title, c.cfg.Fallback.Title),
			Message:  c.nonBlank(msg.Message, apiErr.Message),
			Err:      apiErr,
		}
	}
	if msg, ok := c.cfg.Inline[apiErr.Code]; ok {
		return Outcome{
			Strategy: StrategyInline,
			Code:     apiErr.Code,
			Title:    msg.Title,
			Message:  c.nonBlank(msg.Message, apiErr.Message),
			Err:      apiErr,
		}
	}

	return Outcome{
		Strategy: StrategyInline,
		Code:     apiErr.Code,
		Message:  c.nonBlank(apiErr.Message, ""),
		Err:      apiErr,
	}
}

func (c *Classifier) redirect(apiErr *APIError) Outcome {
	msg := c.cfg.Dialogs[apiErr.Code]
	return Outcome{
		Strategy:   StrategyRedirect,
		Code:       apiErr.Code,
		Title:      msg.Title,
		Message:    c.nonBlank(msg.Message, apiErr.Message),
		RedirectTo: c.cfg.LoginPath,
		Err:        apiErr,
	}
}

// lockoutPlaceholder in a lockout message is replaced by the remaining time.
const lockoutPlaceholder = "%s"

func (c *Classifier) lockout(apiErr *APIError) (Outcome, bool) {
	until, err := ParseUnlockTime(apiErr.Detail(DetailUnlockAt), c.cfg.Location)
	if err != nil {
		return Outcome{}, false
	}
	remaining := UserLockedTime(until, c.cfg.Now())

	text := c.cfg.Lockout
	if mapped, ok := c.cfg.Dialogs[apiErr.Code]; ok {
		text.Title = c.nonBlank(mapped.Title, text.Title)
		text.Message = c.nonBlank(mapped.Message, text.Message)
	}
	message := strings.Replace(text.Message, lockoutPlaceholder, FormatLockedTime(remaining), 1)

	return Outcome{
		Strategy: StrategyLockout,
		Code:     apiErr.Code,
		Title:    text.Title,
		Message:  message,
		Lockout:  &Lockout{Until: until, Remaining: remaining},
		Err:      apiErr,
	}, true
}

func (c *Classifier) nonBlank(primary, secondary string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	if strings.TrimSpace(secondary) != "" {
		return secondary
	}
	return c.cfg.Fallback.Message
}

// FormatLockedTime renders a LockedTime as "3 hours" or "1 minute".
func FormatLockedTime(lt LockedTime) string {
	unit := "minute"
	if lt.IsHours {
		unit = "hour"
	}
	if lt.Time != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", lt.Time, unit)
}
