package authflow

import (
	"io"

	"github.com/MrEthical07/authflow/internal/audit"
)

// AuditEvent is one audit record.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers audit events on a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON document per audit event.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// Audit event types.
const (
	AuditLoginSuccess   = "login_success"
	AuditLoginFailure   = "login_failure"
	AuditRefreshSuccess = "refresh_success"
	AuditRefreshFailure = "refresh_failure"
	AuditLogout         = "logout"
	AuditSessionExpired = "session_expired"
	AuditOTPVerify      = "otp_verify"
	AuditOTPResend      = "otp_resend"
	AuditOTPLockout     = "otp_lockout"
	AuditFlowCompleted  = "flow_completed"
)
