package otp

import (
	"time"

	"github.com/MrEthical07/authflow/apierr"
)

// Status is the presentation status of a challenge.
type Status string

const (
	StatusRequired    Status = "required"
	StatusIncomplete  Status = "incomplete"
	StatusInvalid     Status = "invalid"
	StatusExpired     Status = "expired"
	StatusValid       Status = "valid"
	StatusMaxAttempts Status = "maxAttempts"
	StatusLocked      Status = "locked"
	StatusAttempts    Status = "attempts"
)

// blocking reports whether the status rejects submission until a resend.
func (s Status) blocking() bool {
	return s == StatusMaxAttempts || s == StatusLocked
}

// LockoutNotice is the timed lockout shown after LOCKED_TEMPORARILY.
type LockoutNotice struct {
	Title     string
	Message   string
	Until     time.Time
	Remaining apierr.LockedTime
}

// State is a snapshot of a challenge.
type State struct {
	Value                 string
	Status                Status
	AttemptsRemaining     int
	Loading               bool
	ResendLocked          bool
	ResendDisabled        bool
	ResendEnabled         bool
	TimerSecondsRemaining int
	Lockout               *LockoutNotice
}
