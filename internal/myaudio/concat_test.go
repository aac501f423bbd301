package myaudio_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEQST/TEQST-Backend-sub000/internal/myaudio"
	"github.com/TEQST/TEQST-Backend-sub000/internal/testutil"
)

func TestConcatWAVPreservesSamples(t *testing.T) {
	t.Parallel()

	a := testutil.PCM16(testutil.Tone(0.5))
	b := testutil.PCM16(testutil.Silence(0.25), testutil.Tone(0.25))

	wavA, err := myaudio.EncodeWAV(a, testutil.TestSampleRate, 16, 1)
	require.NoError(t, err)
	wavB, err := myaudio.EncodeWAV(b, testutil.TestSampleRate, 16, 1)
	require.NoError(t, err)

	joined, err := myaudio.ConcatWAVBytes([][]byte{wavA, wavB})
	require.NoError(t, err)

	clip, err := myaudio.Decode(context.Background(), joined, nil)
	require.NoError(t, err)
	assert.Equal(t, append(append([]int{}, a...), b...), clip.PCM)
	assert.InDelta(t, 1.0, clip.Duration(), 1e-9)
}

func TestConcatWAVDeterministic(t *testing.T) {
	t.Parallel()

	segments := [][]byte{testutil.SpeechWAV(t, 1), testutil.SpeechWAV(t, 2)}

	first, err := myaudio.ConcatWAVBytes(segments)
	require.NoError(t, err)
	second, err := myaudio.ConcatWAVBytes(segments)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConcatWAVRejectsMismatchedFormats(t *testing.T) {
	t.Parallel()

	mono := testutil.SpeechWAV(t, 1)
	other, err := myaudio.EncodeWAV(testutil.PCM16(testutil.Tone(1)), 44100, 16, 1)
	require.NoError(t, err)

	_, err = myaudio.ConcatWAVBytes([][]byte{mono, other})
	require.ErrorIs(t, err, myaudio.ErrFormatMismatch)
}

func TestConcatWAVRejectsCorruptSegment(t *testing.T) {
	t.Parallel()

	_, err := myaudio.ConcatWAVBytes([][]byte{testutil.SpeechWAV(t, 1), []byte("garbage")})
	require.ErrorIs(t, err, myaudio.ErrInvalidWAV)

	_, err = myaudio.ConcatWAVBytes(nil)
	require.Error(t, err)
}
