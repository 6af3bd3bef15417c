package apierr

// OTPFailure is the effect of a failed OTP verification or resend on the
// challenge.
type OTPFailure int

const (
	// OTPFailureNone means the error is not OTP-specific; it is shown through
	// the classifier outcome only.
	OTPFailureNone OTPFailure = iota
	OTPFailureInvalid
	OTPFailureExpired
	OTPFailureMaxAttempts
	OTPFailureLocked
)

// OTPFailureOf maps a verification error code to its OTP effect.
func OTPFailureOf(code Code) OTPFailure {
	switch code {
	case CodeInvalidOTP, CodeInvalidAC, CodeInvalidUser:
		return OTPFailureInvalid
	case CodeExpiredOTP:
		return OTPFailureExpired
	case CodeMaxAttempts:
		return OTPFailureMaxAttempts
	case CodeLocked:
		return OTPFailureLocked
	default:
		return OTPFailureNone
	}
}
