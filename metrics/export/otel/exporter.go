package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authflow.MetricsSnapshot
	AuditDropped() uint64
}

// Optional source capabilities. *authflow.Client has both.
type (
	auditFailureSource interface{ AuditFailed() uint64 }
	sessionSource      interface{ Authenticated() bool }
)

type counterInstrument struct {
	id  authflow.MetricID
	ins metric.Int64ObservableCounter
}

type latencyInstrument struct {
	id      authflow.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter observes a client's counters, latency buckets, audit
// health and session state in one callback.
type OTelExporter struct {
	source   metricsSource
	reg      metric.Registration
	counters []counterInstrument
	latency  []latencyInstrument

	dropped metric.Int64ObservableCounter
	failed  metric.Int64ObservableCounter
	active  metric.Int64ObservableGauge
}

func NewOTelExporter(meter metric.Meter, client *authflow.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable
	for _, step := range []func(metric.Meter) ([]metric.Observable, error){
		e.registerCounters,
		e.registerLatency,
		e.registerState,
	} {
		obs, err := step(meter)
		if err != nil {
			return nil, err
		}
		observables = append(observables, obs...)
	}

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.reg = reg
	return e, nil
}

func (e *OTelExporter) registerCounters(meter metric.Meter) ([]metric.Observable, error) {
	out := make([]metric.Observable, 0, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterInstrument{id: def.ID, ins: ins})
		out = append(out, ins)
	}
	return out, nil
}

func (e *OTelExporter) registerLatency(meter metric.Meter) ([]metric.Observable, error) {
	var out []metric.Observable
	for _, def := range internaldefs.HistogramDefs {
		li := latencyInstrument{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create bucket %s: %w", name, err)
			}
			li.buckets[i] = ins
			out = append(out, ins)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create count %s: %w", def.Name, err)
		}
		li.count = count
		out = append(out, count)
		e.latency = append(e.latency, li)
	}
	return out, nil
}

func (e *OTelExporter) registerState(meter metric.Meter) ([]metric.Observable, error) {
	var err error
	e.dropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", internaldefs.AuditDroppedName, err)
	}
	out := []metric.Observable{e.dropped}

	if _, ok := e.source.(auditFailureSource); ok {
		e.failed, err = meter.Int64ObservableCounter(internaldefs.AuditFailedName, metric.WithDescription(internaldefs.AuditFailedHelp))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", internaldefs.AuditFailedName, err)
		}
		out = append(out, e.failed)
	}
	if _, ok := e.source.(sessionSource); ok {
		e.active, err = meter.Int64ObservableGauge(internaldefs.SessionActiveName, metric.WithDescription(internaldefs.SessionActiveHelp))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", internaldefs.SessionActiveName, err)
		}
		out = append(out, e.active)
	}
	return out, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.ins, int64(snap.Counters[c.id]))
	}
	for _, li := range e.latency {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[li.id]))
		for i, n := range cumulative {
			o.ObserveInt64(li.buckets[i], int64(n))
		}
		o.ObserveInt64(li.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.dropped, int64(e.source.AuditDropped()))
	if src, ok := e.source.(auditFailureSource); ok {
		o.ObserveInt64(e.failed, int64(src.AuditFailed()))
	}
	if src, ok := e.source.(sessionSource); ok {
		var v int64
		if src.Authenticated() {
			v = 1
		}
		o.ObserveInt64(e.active, v)
	}
	return nil
}

// Close unregisters the callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.reg == nil {
		return nil
	}
	return e.reg.Unregister()
}
