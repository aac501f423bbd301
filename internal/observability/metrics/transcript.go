package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TranscriptMetrics tracks derived artifact regeneration.
// A nil *TranscriptMetrics is valid and records nothing.
type TranscriptMetrics struct {
	regenerationsTotal   *prometheus.CounterVec
	regenerationDuration *prometheus.HistogramVec
	folderRebuildsTotal  *prometheus.CounterVec
	concatSegments       prometheus.Histogram
	collectors           []prometheus.Collector
}

// NewTranscriptMetrics creates and registers new transcript metrics
func NewTranscriptMetrics(registry *prometheus.Registry) (*TranscriptMetrics, error) {
	m := &TranscriptMetrics{}
	m.regenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_regenerations_total",
			Help: "Total number of text recording artifact regenerations",
		},
		[]string{"concat_mode", "status"},
	)
	m.regenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcript_regeneration_duration_seconds",
			Help:    "Time taken to rebuild concatenated audio and transcripts",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		},
		[]string{"concat_mode"},
	)
	m.folderRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_folder_rebuilds_total",
			Help: "Total number of folder transcript rebuilds",
		},
		[]string{"status"},
	)
	m.concatSegments = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_concat_segments",
		Help:    "Number of sentence segments per concatenation",
		Buckets: prometheus.ExponentialBuckets(1, BucketFactor2, BucketCount12),
	})
	m.collectors = []prometheus.Collector{
		m.regenerationsTotal,
		m.regenerationDuration,
		m.folderRebuildsTotal,
		m.concatSegments,
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *TranscriptMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *TranscriptMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordRegeneration records one regeneration attempt
func (m *TranscriptMetrics) RecordRegeneration(concatMode, status string, segments int, seconds float64) {
	if m == nil {
		return
	}
	m.regenerationsTotal.WithLabelValues(concatMode, status).Inc()
	m.regenerationDuration.WithLabelValues(concatMode).Observe(seconds)
	if status == StatusSuccess {
		m.concatSegments.Observe(float64(segments))
	}
}

// RecordFolderRebuild records one folder transcript rebuild
func (m *TranscriptMetrics) RecordFolderRebuild(status string) {
	if m == nil {
		return
	}
	m.folderRebuildsTotal.WithLabelValues(status).Inc()
}
