// Package observability wires the metric collectors of the recording pipeline
// into one registry.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TEQST/TEQST-Backend-sub000/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	Recording  *metrics.RecordingMetrics
	Transcript *metrics.TranscriptMetrics
	Statistics *metrics.StatisticsMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	recordingMetrics, err := metrics.NewRecordingMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording metrics: %w", err)
	}

	transcriptMetrics, err := metrics.NewTranscriptMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript metrics: %w", err)
	}

	statisticsMetrics, err := metrics.NewStatisticsMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create statistics metrics: %w", err)
	}

	return &Metrics{
		registry:   registry,
		Recording:  recordingMetrics,
		Transcript: transcriptMetrics,
		Statistics: statisticsMetrics,
	}, nil
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format, for
// pickup by the node exporter textfile collector after a CLI run.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
