package myaudio

import (
	"context"
	"math"

	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
)

// Validity classifies where a sentence recording has too much silence
type Validity string

const (
	Valid           Validity = "VALID"
	InvalidStart    Validity = "INVALID_START"
	InvalidEnd      Validity = "INVALID_END"
	InvalidStartEnd Validity = "INVALID_START_END"
)

// boundaryEpsilon absorbs float error when a silence span equals its limit exactly
const boundaryEpsilon = 1e-9

// Analysis is the result of inspecting one sentence recording
type Analysis struct {
	Validity        Validity
	Length          float64 // seconds
	LeadingSilence  float64 // seconds before the first non-silent window
	TrailingSilence float64 // seconds after the last non-silent window
	Silent          bool    // no window rose above the threshold
	Clip            *Clip
}

// AnalyzerConfig holds the silence detection parameters
type AnalyzerConfig struct {
	SilenceThreshold   float64 // dBFS
	WindowMs           int
	MaxLeadingSilence  float64 // seconds
	MaxTrailingSilence float64 // seconds
}

// DefaultAnalyzerConfig matches the shipped configuration defaults
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		SilenceThreshold:   -50,
		WindowMs:           10,
		MaxLeadingSilence:  0.3,
		MaxTrailingSilence: 0.2,
	}
}

// AnalyzerConfigFromSettings extracts the analyzer parameters from the audio settings
func AnalyzerConfigFromSettings(settings *conf.AudioSettings) AnalyzerConfig {
	return AnalyzerConfig{
		SilenceThreshold:   settings.SilenceThreshold,
		WindowMs:           settings.WindowMs,
		MaxLeadingSilence:  settings.MaxLeadingSilence,
		MaxTrailingSilence: settings.MaxTrailingSilence,
	}
}

// Analyzer decodes sentence audio and classifies its validity. It is
// stateless and safe for concurrent use.
type Analyzer struct {
	cfg        AnalyzerConfig
	transcoder Transcoder
}

// NewAnalyzer creates an analyzer. transcoder may be nil, in which case only
// WAV and FLAC submissions decode.
func NewAnalyzer(cfg AnalyzerConfig, transcoder Transcoder) *Analyzer {
	if cfg.WindowMs <= 0 {
		cfg.WindowMs = DefaultAnalyzerConfig().WindowMs
	}
	return &Analyzer{cfg: cfg, transcoder: transcoder}
}

// Analyze decodes audio and measures its length and silence boundaries.
// Errors are CategoryDecode; nothing else can fail.
func (a *Analyzer) Analyze(ctx context.Context, data []byte) (*Analysis, error) {
	clip, err := Decode(ctx, data, a.transcoder)
	if err != nil {
		return nil, err
	}

	mono, err := clip.Mono()
	if err != nil {
		return nil, err
	}

	result := &Analysis{
		Length: clip.Duration(),
		Clip:   clip,
	}

	first, last, found := a.speechBounds(mono, clip.SampleRate)
	if !found {
		// Silence everywhere still counts as VALID with its full length.
		result.Validity = Valid
		result.Silent = true
		return result, nil
	}

	rate := float64(clip.SampleRate)
	result.LeadingSilence = float64(first) / rate
	result.TrailingSilence = float64(len(mono)-last) / rate
	result.Validity = Classify(result.LeadingSilence, result.TrailingSilence, a.cfg)
	return result, nil
}

// Classify maps measured silence spans to a validity using strict limits
func Classify(leading, trailing float64, cfg AnalyzerConfig) Validity {
	badStart := leading > cfg.MaxLeadingSilence+boundaryEpsilon
	badEnd := trailing > cfg.MaxTrailingSilence+boundaryEpsilon

	switch {
	case badStart && badEnd:
		return InvalidStartEnd
	case badStart:
		return InvalidStart
	case badEnd:
		return InvalidEnd
	default:
		return Valid
	}
}

// speechBounds returns the first sample of the first non-silent window and the
// end sample of the last non-silent window.
func (a *Analyzer) speechBounds(mono []float64, sampleRate int) (first, last int, found bool) {
	window := max(1, sampleRate*a.cfg.WindowMs/1000)

	for start := 0; start < len(mono); start += window {
		end := min(start+window, len(mono))
		if levelDBFS(mono[start:end]) <= a.cfg.SilenceThreshold {
			continue
		}
		if !found {
			first = start
			found = true
		}
		last = end
	}
	return first, last, found
}

// levelDBFS computes the RMS level of normalized samples in dB relative to full scale
func levelDBFS(samples []float64) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}
