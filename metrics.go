package authflow

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one client counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that stored a token pair.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed logins.
	MetricLoginFailure
	// MetricRefreshSuccess counts refreshes that stored a new access token.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refreshes that cleared the session.
	MetricRefreshFailure
	// MetricRefreshNoToken counts refreshes attempted without a refresh token.
	MetricRefreshNoToken
	// MetricLogout counts Logout calls.
	MetricLogout
	// MetricSessionCleared counts every reset of the token pair to the
	// sentinel, whatever the cause.
	MetricSessionCleared
	// MetricUnauthorized counts 401 responses seen by the transport.
	MetricUnauthorized
	// MetricOTPVerifySuccess counts accepted OTP and activation codes.
	MetricOTPVerifySuccess
	// MetricOTPVerifyFailure counts rejected OTP and activation codes.
	MetricOTPVerifyFailure
	// MetricOTPResendSuccess counts issued replacement codes.
	MetricOTPResendSuccess
	// MetricOTPResendFailure counts failed resend requests.
	MetricOTPResendFailure
	// MetricOTPLockout counts timed lockouts reported by the backend.
	MetricOTPLockout
	// MetricFlowAdvanced counts wizard step changes.
	MetricFlowAdvanced
	// MetricFlowCompleted counts journeys that reached their final step.
	MetricFlowCompleted
	// MetricFlowFailure counts classified journey failures.
	MetricFlowFailure
	// MetricRedirect counts failures that navigated to the login page.
	MetricRedirect
	// MetricRequestFailure counts backend calls that returned an error.
	MetricRequestFailure
	// MetricRequestLatency is the backend call latency histogram.
	MetricRequestLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the request latency histogram. A
// nil or disabled Metrics ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every metric.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of id. Only MetricRequestLatency has
// a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRequestLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency buckets.
// A disabled Metrics yields empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricRequestLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
