package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for AnalysisRequestsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
)

// Metrics holds all Prometheus metrics for analysis traffic and UI sessions.
type Metrics struct {
	// Client metrics
	AnalysisRequestsTotal *prometheus.CounterVec
	AnalysisDuration      prometheus.Histogram
	UploadBytes           prometheus.Histogram

	// Session metrics
	SessionsActive     prometheus.Gauge
	StateTransitions   *prometheus.CounterVec
	ValidationRejected *prometheus.CounterVec
}

// NewMetrics creates a new set of metrics registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnalysisRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "azurely_analysis_requests_total",
				Help: "Analysis requests by outcome and error code",
			},
			[]string{"outcome", "code"},
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "azurely_analysis_duration_seconds",
				Help:    "Wall time from upload start to decoded response",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		UploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "azurely_upload_bytes",
				Help:    "Size of uploaded audio files",
				Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
			},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "azurely_ui_sessions_active",
				Help: "Browser sessions currently held by the UI server",
			},
		),
		StateTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "azurely_session_transitions_total",
				Help: "Controller state transitions",
			},
			[]string{"from", "to"},
		),
		ValidationRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "azurely_validation_rejected_total",
				Help: "Files or languages rejected before upload",
			},
			[]string{"reason"},
		),
	}
}

// RecordAnalysis records a finished analysis call. code is empty on success.
func (m *Metrics) RecordAnalysis(outcome, code string, seconds float64) {
	if m == nil {
		return
	}
	m.AnalysisRequestsTotal.WithLabelValues(outcome, code).Inc()
	m.AnalysisDuration.Observe(seconds)
}

// RecordStale counts a response discarded because the session moved on.
func (m *Metrics) RecordStale() {
	if m == nil {
		return
	}
	m.AnalysisRequestsTotal.WithLabelValues(OutcomeStale, "").Inc()
}

// RecordUpload records the size of an uploaded file.
func (m *Metrics) RecordUpload(sizeBytes int64) {
	if m == nil {
		return
	}
	m.UploadBytes.Observe(float64(sizeBytes))
}

// RecordTransition counts a controller state change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.StateTransitions.WithLabelValues(from, to).Inc()
}

// RecordRejection counts a local validation failure.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.ValidationRejected.WithLabelValues(reason).Inc()
}

// SetSessionsActive sets the live session count.
func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}
