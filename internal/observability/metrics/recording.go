// Package metrics provides recording lifecycle metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RecordingMetrics contains Prometheus metrics for sentence submissions.
// A nil *RecordingMetrics is valid and records nothing.
type RecordingMetrics struct {
	submissionsTotal *prometheus.CounterVec
	submissionErrors *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	sentenceLength   *prometheus.HistogramVec
	validityTotal    *prometheus.CounterVec
	recordedSeconds  *prometheus.CounterVec
	backupsTotal     prometheus.Counter
	completionsTotal prometheus.Counter
	textRecordings   prometheus.Counter
	collectors       []prometheus.Collector
}

// NewRecordingMetrics creates and registers new recording metrics
func NewRecordingMetrics(registry *prometheus.Registry) (*RecordingMetrics, error) {
	m := &RecordingMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RecordingMetrics) initMetrics() {
	m.submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recording_sentence_submissions_total",
			Help: "Total number of sentence submissions",
		},
		[]string{"operation", "status"},
	)
	m.submissionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recording_sentence_submission_errors_total",
			Help: "Total number of rejected or failed sentence submissions by error category",
		},
		[]string{"operation", "category"},
	)
	m.analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recording_audio_analysis_duration_seconds",
			Help:    "Time taken to decode and classify sentence audio",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"format"},
	)
	m.sentenceLength = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recording_sentence_length_seconds",
			Help:    "Length of accepted sentence audio",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount8),
		},
		[]string{"operation"},
	)
	m.validityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recording_sentence_validity_total",
			Help: "Accepted sentence recordings by validity classification",
		},
		[]string{"validity"},
	)
	m.recordedSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recording_recorded_seconds_total",
			Help: "Seconds of sentence audio accepted, re-records included",
		},
		[]string{"operation"},
	)
	m.backupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recording_sentence_backups_total",
		Help: "Total number of superseded sentence recordings backed up",
	})
	m.completionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recording_text_completions_total",
		Help: "Total number of text recordings that reached every sentence",
	})
	m.textRecordings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recording_text_recordings_created_total",
		Help: "Total number of text recordings created",
	})

	m.collectors = []prometheus.Collector{
		m.submissionsTotal,
		m.submissionErrors,
		m.analysisDuration,
		m.sentenceLength,
		m.validityTotal,
		m.recordedSeconds,
		m.backupsTotal,
		m.completionsTotal,
		m.textRecordings,
	}
}

// Describe implements the Collector interface
func (m *RecordingMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *RecordingMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordTextRecordingCreated counts a new text recording
func (m *RecordingMetrics) RecordTextRecordingCreated() {
	if m == nil {
		return
	}
	m.textRecordings.Inc()
}

// RecordSubmission records an accepted submission with its analysis outcome
func (m *RecordingMetrics) RecordSubmission(operation, validity string, length float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(operation, StatusSuccess).Inc()
	m.validityTotal.WithLabelValues(validity).Inc()
	m.sentenceLength.WithLabelValues(operation).Observe(length)
	m.recordedSeconds.WithLabelValues(operation).Add(length)
}

// RecordSubmissionError records a rejected or failed submission
func (m *RecordingMetrics) RecordSubmissionError(operation, category string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(operation, StatusError).Inc()
	m.submissionErrors.WithLabelValues(operation, category).Inc()
}

// RecordAnalysisDuration records how long decoding and classification took
func (m *RecordingMetrics) RecordAnalysisDuration(format string, seconds float64) {
	if m == nil {
		return
	}
	m.analysisDuration.WithLabelValues(format).Observe(seconds)
}

// RecordBackup counts a superseded sentence recording
func (m *RecordingMetrics) RecordBackup() {
	if m == nil {
		return
	}
	m.backupsTotal.Inc()
}

// RecordCompletion counts a text recording reaching its last sentence
func (m *RecordingMetrics) RecordCompletion() {
	if m == nil {
		return
	}
	m.completionsTotal.Inc()
}
