// Package metrics defines the Prometheus collectors of the pipeline binaries.
// Each binary builds its collectors once in main against a single registry before any loop starts.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry returns a registry with the Go runtime and process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Replicator holds the replicator's collectors. A nil *Replicator records nothing.
type Replicator struct {
	records       *prometheus.CounterVec
	queueSize     prometheus.Gauge
	cycleDuration prometheus.Histogram
}

func NewReplicator(reg prometheus.Registerer) *Replicator {
	return &Replicator{
		records: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sync_records_total",
			Help: "Records copied from the intake log to the main store, by outcome",
		}, []string{"status"}),
		queueSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "sync_queue_size",
			Help: "Unsynced intake records found at the start of the last cycle",
		}),
		cycleDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "sync_cycle_duration_seconds",
			Help:    "Duration of a replication cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Replicator) Synced() {
	if m != nil {
		m.records.WithLabelValues("success").Inc()
	}
}

func (m *Replicator) Failed() {
	if m != nil {
		m.records.WithLabelValues("error").Inc()
	}
}

func (m *Replicator) QueueSize(n int) {
	if m != nil {
		m.queueSize.Set(float64(n))
	}
}

func (m *Replicator) CycleDone(d time.Duration) {
	if m != nil {
		m.cycleDuration.Observe(d.Seconds())
	}
}

// Validator holds the validator's collectors. A nil *Validator records nothing.
type Validator struct {
	validations   *prometheus.CounterVec
	errors        *prometheus.CounterVec
	duration      prometheus.Histogram
	cycleDuration prometheus.Histogram
	dlqSize       prometheus.Gauge
	qualityScore  prometheus.Gauge
	parseFailures prometheus.Counter
}

func NewValidator(reg prometheus.Registerer) *Validator {
	return &Validator{
		validations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "validation_total",
			Help: "Total validations",
		}, []string{"status", "schema_type"}),
		errors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "validation_errors_total",
			Help: "Total validation errors",
		}, []string{"error_type"}),
		duration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "validation_duration_seconds",
			Help:    "Time spent validating data",
			Buckets: prometheus.DefBuckets,
		}),
		cycleDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "validation_cycle_duration_seconds",
			Help:    "Duration of a validation cycle",
			Buckets: prometheus.DefBuckets,
		}),
		dlqSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dead_letter_queue_size",
			Help: "Number of records in dead letter queue",
		}),
		qualityScore: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "data_quality_score",
			Help: "Share of the last validated batch that passed, 0-100",
		}),
		parseFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "validator_parse_failures_total",
			Help: "Intake records whose payload could not be decoded",
		}),
	}
}

// Validated counts one validation. errorType is ignored when valid.
func (m *Validator) Validated(schemaType string, valid bool, errorType string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
	if valid {
		m.validations.WithLabelValues("valid", schemaType).Inc()
		return
	}
	m.validations.WithLabelValues("invalid", schemaType).Inc()
	m.errors.WithLabelValues(errorType).Inc()
}

func (m *Validator) ParseFailed() {
	if m != nil {
		m.parseFailures.Inc()
	}
}

func (m *Validator) QualityScore(score float64) {
	if m != nil {
		m.qualityScore.Set(score)
	}
}

func (m *Validator) DeadLetterSize(n int64) {
	if m != nil {
		m.dlqSize.Set(float64(n))
	}
}

func (m *Validator) CycleDone(d time.Duration) {
	if m != nil {
		m.cycleDuration.Observe(d.Seconds())
	}
}

// HTTP holds request collectors shared by the HTTP boundaries.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	return &HTTP{
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by handler and status code",
		}, []string{"handler", "code"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by handler",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
	}
}

// Observe records one finished request.
func (m *HTTP) Observe(handler string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(handler, statusLabel(code)).Inc()
	m.duration.WithLabelValues(handler).Observe(d.Seconds())
}

func statusLabel(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}
