// Package metrics provides constants used across metric definitions.
package metrics

// Operation label values.
const (
	// OpCreate is a first submission for a sentence.
	OpCreate = "create"
	// OpUpdate is a re-record of an existing sentence.
	OpUpdate = "update"
	// OpRegenerate is a manual artifact refresh.
	OpRegenerate = "regenerate"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Report kind label values.
const (
	ReportFolder  = "folder"
	ReportFolders = "folders"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart100ms is the starting bucket for sentence lengths in seconds.
	BucketStart100ms = 0.1

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount8 covers 100ms to ~13s for sentence lengths.
	BucketCount8 = 8
	// BucketCount12 covers 10ms to ~20s.
	BucketCount12 = 12
	// BucketCount15 covers 1ms to ~16s.
	BucketCount15 = 15
)
