package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatisticsMetrics tracks folder report generation.
// A nil *StatisticsMetrics is valid and records nothing.
type StatisticsMetrics struct {
	reportsTotal   *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	foldersVisited prometheus.Histogram
	collectors     []prometheus.Collector
}

// NewStatisticsMetrics creates and registers new statistics metrics
func NewStatisticsMetrics(registry *prometheus.Registry) (*StatisticsMetrics, error) {
	m := &StatisticsMetrics{}
	m.reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statistics_reports_total",
			Help: "Total number of folder reports generated",
		},
		[]string{"kind", "status"},
	)
	m.reportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statistics_report_duration_seconds",
			Help:    "Time taken to aggregate a report",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"kind"},
	)
	m.foldersVisited = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "statistics_report_folders_visited",
		Help:    "Number of folders in an aggregated subtree",
		Buckets: prometheus.ExponentialBuckets(1, BucketFactor2, BucketCount12),
	})
	m.collectors = []prometheus.Collector{m.reportsTotal, m.reportDuration, m.foldersVisited}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *StatisticsMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *StatisticsMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordReport records one report with the subtree size it covered
func (m *StatisticsMetrics) RecordReport(kind, status string, folders int, seconds float64) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(kind, status).Inc()
	m.reportDuration.WithLabelValues(kind).Observe(seconds)
	if folders > 0 {
		m.foldersVisited.Observe(float64(folders))
	}
}
