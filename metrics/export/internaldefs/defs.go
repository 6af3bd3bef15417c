package internaldefs

import (
	"github.com/MrEthical07/authflow"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter of audit events lost to backpressure.
const (
	AuditDroppedName = "authflow_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// Gauges read from client state rather than the snapshot.
const (
	AuditFailedName   = "authflow_audit_sink_failures_total"
	AuditFailedHelp   = "Audit events lost to a failing sink."
	SessionActiveName = "authflow_session_authenticated"
	SessionActiveHelp = "1 while the client holds a usable access token."
)

var CounterDefs = []CounterDef{
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Logins that stored a token pair."},
	{ID: authflow.MetricLoginFailure, Name: "authflow_login_failure_total", Help: "Rejected or failed logins."},
	{ID: authflow.MetricRefreshSuccess, Name: "authflow_refresh_success_total", Help: "Successful token refreshes."},
	{ID: authflow.MetricRefreshFailure, Name: "authflow_refresh_failure_total", Help: "Token refreshes that ended the session."},
	{ID: authflow.MetricRefreshNoToken, Name: "authflow_refresh_no_token_total", Help: "Refreshes attempted without a refresh token."},
	{ID: authflow.MetricLogout, Name: "authflow_logout_total", Help: "Logout calls."},
	{ID: authflow.MetricSessionCleared, Name: "authflow_session_cleared_total", Help: "Resets of the session to the unauthenticated state."},
	{ID: authflow.MetricUnauthorized, Name: "authflow_unauthorized_total", Help: "401 responses that ended an authenticated session."},
	{ID: authflow.MetricOTPVerifySuccess, Name: "authflow_otp_verify_success_total", Help: "Accepted OTP codes."},
	{ID: authflow.MetricOTPVerifyFailure, Name: "authflow_otp_verify_failure_total", Help: "Rejected OTP codes."},
	{ID: authflow.MetricOTPResendSuccess, Name: "authflow_otp_resend_success_total", Help: "Issued replacement OTP codes."},
	{ID: authflow.MetricOTPResendFailure, Name: "authflow_otp_resend_failure_total", Help: "Failed OTP resend requests."},
	{ID: authflow.MetricOTPLockout, Name: "authflow_otp_lockout_total", Help: "Timed OTP lockouts reported by the backend."},
	{ID: authflow.MetricFlowAdvanced, Name: "authflow_flow_advanced_total", Help: "Journey step changes."},
	{ID: authflow.MetricFlowCompleted, Name: "authflow_flow_completed_total", Help: "Journeys that reached their final step."},
	{ID: authflow.MetricFlowFailure, Name: "authflow_flow_failure_total", Help: "Classified journey failures."},
	{ID: authflow.MetricRedirect, Name: "authflow_redirect_total", Help: "Failures that navigated to the login page."},
	{ID: authflow.MetricRequestFailure, Name: "authflow_request_failure_total", Help: "Backend calls that returned an error."},
}

var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricRequestLatency, Name: "authflow_request_latency_seconds", Help: "Backend call latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
