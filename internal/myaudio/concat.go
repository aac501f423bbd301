package myaudio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// ConcatWAV appends the samples of each WAV segment in order and writes one WAV
// file to w. Samples are copied verbatim, so every segment must share the first
// segment's sample rate, channel count and bit depth.
func ConcatWAV(w io.WriteSeeker, segments [][]byte) error {
	if len(segments) == 0 {
		return fmt.Errorf("concat requires at least one segment")
	}

	var (
		pcm                            []int
		sampleRate, channels, bitDepth int
	)

	for i, segment := range segments {
		decoder := wav.NewDecoder(bytes.NewReader(segment))
		decoder.ReadInfo()
		if !decoder.IsValidFile() {
			return fmt.Errorf("segment %d: %w", i, ErrInvalidWAV)
		}

		buf, err := decoder.FullPCMBuffer()
		if err != nil {
			return fmt.Errorf("segment %d: %w: %w", i, ErrInvalidWAV, err)
		}

		rate, chans, depth := int(decoder.SampleRate), int(decoder.NumChans), int(decoder.BitDepth)
		if i == 0 {
			sampleRate, channels, bitDepth = rate, chans, depth
			pcm = make([]int, 0, len(buf.Data)*len(segments))
		} else if rate != sampleRate || chans != channels || depth != bitDepth {
			return fmt.Errorf("segment %d is %d Hz/%d ch/%d bit, expected %d Hz/%d ch/%d bit: %w",
				i, rate, chans, depth, sampleRate, channels, bitDepth, ErrFormatMismatch)
		}

		pcm = append(pcm, buf.Data...)
	}

	return WriteWAV(w, pcm, sampleRate, bitDepth, channels)
}

// ConcatWAVBytes is ConcatWAV into memory
func ConcatWAVBytes(segments [][]byte) ([]byte, error) {
	out := &seekableBuffer{}
	if err := ConcatWAV(out, segments); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
