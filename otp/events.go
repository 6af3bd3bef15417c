package otp

import "github.com/MrEthical07/authflow/apierr"

// EventKind identifies an observable challenge event.
type EventKind int

const (
	EventVerifySuccess EventKind = iota
	EventVerifyFailure
	EventResendSuccess
	EventResendFailure
	EventLockout
)

// Event is reported to Config.Observer after each backend completion.
type Event struct {
	Kind EventKind
	Code apierr.Code
}
