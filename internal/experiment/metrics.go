package experiment

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// File outcome labels for denoisebench_files_total
const (
	StatusCompliant    = "compliant"
	StatusNonCompliant = "non_compliant"
	StatusFailed       = "failed"
)

// Metrics holds the Prometheus collectors for a batch. Each Metrics owns a
// private registry so concurrent runs and tests never share state.
type Metrics struct {
	registry *prometheus.Registry

	files          *prometheus.CounterVec   // Files by method and outcome
	processingTime *prometheus.HistogramVec // Seconds spent per file
	snrImprovement *prometheus.HistogramVec // SNR change per file (dB)
	compliance     *prometheus.GaugeVec     // Fraction of processed files meeting the standard
}

// NewMetrics creates and registers the batch collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "denoisebench_files_total",
				Help: "Files processed, by denoise method and outcome",
			},
			[]string{"method", "status"},
		),
		processingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "denoisebench_processing_seconds",
				Help:    "Wall time to decode, denoise and evaluate one file",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"method"},
		),
		snrImprovement: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "denoisebench_snr_improvement_db",
				Help:    "Change in estimated SNR after denoising",
				Buckets: prometheus.LinearBuckets(-20, 5, 11),
			},
			[]string{"method"},
		),
		compliance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "denoisebench_compliance_ratio",
				Help: "Fraction of processed files meeting the compliance standard",
			},
			[]string{"method"},
		),
	}

	m.registry.MustRegister(m.files, m.processingTime, m.snrImprovement, m.compliance)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFile records one file outcome
func (m *Metrics) ObserveFile(r PairResult) {
	method := r.Method.String()

	switch {
	case r.Err != nil:
		m.files.WithLabelValues(method, StatusFailed).Inc()
		return
	case r.ProcessedCompliant:
		m.files.WithLabelValues(method, StatusCompliant).Inc()
	default:
		m.files.WithLabelValues(method, StatusNonCompliant).Inc()
	}

	m.processingTime.WithLabelValues(method).Observe(r.TotalTime().Seconds())
	m.snrImprovement.WithLabelValues(method).Observe(r.SNRImprovement)
}

// ObserveSummary records the aggregate compliance rate for a method
func (m *Metrics) ObserveSummary(s MethodSummary) {
	m.compliance.WithLabelValues(s.Method.String()).Set(s.ComplianceRate)
}

// WriteFile writes the registry in the Prometheus text format, suitable for
// the node_exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
