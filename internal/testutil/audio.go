package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/myaudio"
)

// TestSampleRate divides evenly into 10 ms analysis windows.
const TestSampleRate = 16000

const (
	toneFrequency = 440.0
	toneAmplitude = 0.5
)

// Part is one span of a synthetic clip
type Part struct {
	Seconds float64
	Tone    bool
}

// Silence returns a silent span
func Silence(seconds float64) Part { return Part{Seconds: seconds} }

// Tone returns a 440 Hz span at half scale, roughly -9 dBFS
func Tone(seconds float64) Part { return Part{Seconds: seconds, Tone: true} }

// PCM16 renders the parts as mono 16 bit samples
func PCM16(parts ...Part) []int {
	var pcm []int
	for _, p := range parts {
		n := int(math.Round(p.Seconds * TestSampleRate))
		for i := range n {
			if !p.Tone {
				pcm = append(pcm, 0)
				continue
			}
			v := toneAmplitude * math.Sin(2*math.Pi*toneFrequency*float64(i)/TestSampleRate)
			pcm = append(pcm, int(math.Round(v*32767)))
		}
	}
	return pcm
}

// WAV renders the parts as a mono 16 bit WAV file
func WAV(t testing.TB, parts ...Part) []byte {
	t.Helper()
	data, err := myaudio.EncodeWAV(PCM16(parts...), TestSampleRate, 16, 1)
	require.NoError(t, err)
	return data
}

// SpeechWAV is a valid clip of the given total length: 0.05 s lead-in, tone,
// 0.05 s tail.
func SpeechWAV(t testing.TB, seconds float64) []byte {
	t.Helper()
	require.Greater(t, seconds, 0.1)
	return WAV(t, Silence(0.05), Tone(seconds-0.1), Silence(0.05))
}
