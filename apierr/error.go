package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Code is a backend error kind.
type Code string

const (
	CodeBadCredentials    Code = "BAD_CREDENTIALS"
	CodeBadGateway        Code = "BAD_GATEWAY"
	CodeExpiredOTP        Code = "EXPIRED_OTP"
	CodeExpiredToken      Code = "EXPIRED_TOKEN"
	CodeInvalidAC         Code = "INVALID_AC"
	CodeInvalidCompanyID  Code = "INVALID_COMPANY_ID"
	CodeInvalidOTP        Code = "INVALID_OTP"
	CodeInvalidRecaptcha  Code = "INVALID_RECAPTCHA"
	CodeInvalidUser       Code = "INVALID_USER"
	CodeLocked            Code = "LOCKED"
	CodeLockedTemporarily Code = "LOCKED_TEMPORARILY"
	CodeMaxAttempts       Code = "MAX_ATTEMPTS"
	CodeRepeatedPassword  Code = "REPEATED_PASSWORD"
	CodeServerError       Code = "SERVER_ERROR"
	CodeUserLocked        Code = "USER_LOCKED"
	CodeUnauthorized      Code = "UNAUTHORIZED"
)

// DetailUnlockAt is the details key carrying the unlock timestamp of a
// LOCKED_TEMPORARILY error. The backend names it hoursRemaining although it
// holds an instant, not a count.
const DetailUnlockAt = "hoursRemaining"

// APIError is a failed backend call as reported by the server.
type APIError struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Status  int               `json:"-"`
}

// New returns an APIError with the given code and message.
func New(code Code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetail returns a copy of e with key set in Details.
func (e *APIError) WithDetail(key, value string) *APIError {
	out := *e
	out.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// Detail returns Details[key].
func (e *APIError) Detail(key string) string {
	if e == nil || e.Details == nil {
		return ""
	}
	return e.Details[key]
}

// UnmarshalJSON accepts detail values of any JSON scalar type and stores
// them as strings.
func (e *APIError) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code    Code                       `json:"code"`
		Message string                     `json:"message"`
		Details map[string]json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Code = raw.Code
	e.Message = raw.Message
	e.Details = nil
	if len(raw.Details) > 0 {
		e.Details = make(map[string]string, len(raw.Details))
		for k, v := range raw.Details {
			e.Details[k] = detailString(v)
		}
	}
	return nil
}

func detailString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if string(v) == "null" {
		return ""
	}
	return string(v)
}

// As extracts an *APIError from err.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}

// From returns the *APIError wrapped in err, or a SERVER_ERROR carrying
// err's text for transport failures. From(nil) returns nil.
func From(err error) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := As(err); ok {
		return apiErr
	}
	return &APIError{Code: CodeServerError, Message: err.Error()}
}

// IsCode reports whether err is an APIError with code.
func IsCode(err error, code Code) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Code == code
}
