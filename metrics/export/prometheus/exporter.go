package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() authflow.MetricsSnapshot
	AuditDropped() uint64
}

type describedCounter struct {
	id   authflow.MetricID
	desc *prometheus.Desc
}

type describedHistogram struct {
	id   authflow.MetricID
	desc *prometheus.Desc
}

// PrometheusExporter is a prometheus.Collector over client metrics.
type PrometheusExporter struct {
	source       metricsSource
	counters     []describedCounter
	histograms   []describedHistogram
	auditDropped *prometheus.Desc
}

var _ prometheus.Collector = (*PrometheusExporter)(nil)

// NewPrometheusExporter returns a collector reading from client.
func NewPrometheusExporter(client *authflow.Client) *PrometheusExporter {
	if client == nil {
		return NewPrometheusExporterFromSource(nil)
	}
	return NewPrometheusExporterFromSource(client)
}

// NewPrometheusExporterFromSource returns a collector reading from source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	p := &PrometheusExporter{
		source:       source,
		counters:     make([]describedCounter, 0, len(internaldefs.CounterDefs)),
		histograms:   make([]describedHistogram, 0, len(internaldefs.HistogramDefs)),
		auditDropped: prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		p.counters = append(p.counters, describedCounter{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	for _, def := range internaldefs.HistogramDefs {
		p.histograms = append(p.histograms, describedHistogram{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	return p
}

// Describe implements prometheus.Collector.
func (p *PrometheusExporter) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range p.counters {
		ch <- c.desc
	}
	for _, h := range p.histograms {
		ch <- h.desc
	}
	ch <- p.auditDropped
}

// Collect implements prometheus.Collector. Nothing is emitted while the
// client has metrics disabled and no audit drops.
func (p *PrometheusExporter) Collect(ch chan<- prometheus.Metric) {
	if p == nil || p.source == nil {
		return
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return
	}

	for _, c := range p.counters {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(snapshot.Counters[c.id]))
	}

	for _, h := range p.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, le := range internaldefs.HistogramUpperBounds {
			buckets[le] = cumulative[i]
		}
		// Sums are not tracked by the client.
		ch <- prometheus.MustNewConstHistogram(h.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(p.auditDropped, prometheus.CounterValue, float64(dropped))
}

// Handler serves the collector from a private registry.
func (p *PrometheusExporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(p)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
