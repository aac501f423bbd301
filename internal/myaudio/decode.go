package myaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/flac"

	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Clip is decoded audio. PCM holds the interleaved integer samples at the
// source bit depth and WAV the same audio as a RIFF/WAVE file, which is the
// form sentence audio is stored in.
type Clip struct {
	Source     Format
	SampleRate int
	Channels   int
	BitDepth   int
	PCM        []int
	WAV        []byte
}

// Frames returns the number of sample frames (samples per channel)
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.PCM) / c.Channels
}

// Duration returns the clip length in seconds
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Mono mixes the clip down to one channel normalized to [-1, 1]
func (c *Clip) Mono() ([]float64, error) {
	divisor, err := getAudioDivisor(c.BitDepth)
	if err != nil {
		return nil, err
	}

	frames := c.Frames()
	out := make([]float64, frames)
	for i := range frames {
		var sum float64
		base := i * c.Channels
		for ch := range c.Channels {
			sum += float64(c.PCM[base+ch])
		}
		out[i] = sum / float64(c.Channels) / divisor
	}
	return out, nil
}

// Transcoder converts a compressed container into WAV bytes
type Transcoder interface {
	ToWAV(ctx context.Context, data []byte) ([]byte, error)
}

// Decode parses WAV and FLAC natively; any other recognized container is handed to
// the transcoder. Every failure is a CategoryDecode error.
func Decode(ctx context.Context, data []byte, transcoder Transcoder) (*Clip, error) {
	if len(data) == 0 {
		return nil, errors.Decode(ErrEmptyAudio)
	}

	format := DetectFormat(data)
	var (
		clip *Clip
		err  error
	)

	switch format {
	case FormatWAV:
		clip, err = decodeWAV(data)
	case FormatFLAC:
		clip, err = decodeFLAC(data)
	case FormatUnknown:
		err = ErrUnknownFormat
	default:
		clip, err = transcodeAndDecode(ctx, data, transcoder)
	}
	if err != nil {
		return nil, errors.New(fmt.Errorf("decode %s audio: %w", format, err)).
			Component("myaudio").
			Category(errors.CategoryDecode).
			Context("format", string(format)).
			Context("size", len(data)).
			Build()
	}

	clip.Source = format
	return clip, nil
}

func decodeWAV(data []byte) (*Clip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedEncoding, decoder.WavAudioFormat)
	}
	if _, err := getAudioDivisor(int(decoder.BitDepth)); err != nil {
		return nil, err
	}
	if decoder.NumChans == 0 {
		return nil, ErrInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	clip := &Clip{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
		PCM:        buf.Data,
		WAV:        data,
	}
	if clip.Frames() == 0 {
		return nil, ErrNoFrames
	}
	return clip, nil
}

func decodeFLAC(data []byte) (*Clip, error) {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if _, err := getAudioDivisor(decoder.BitsPerSample); err != nil {
		return nil, err
	}

	bytesPerSample := decoder.BitsPerSample / 8
	pcm := make([]int, 0, int(decoder.TotalSamples)*decoder.NChannels)

	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			pcm = append(pcm, readLESample(frame[i:], decoder.BitsPerSample))
		}
	}

	clip := &Clip{
		SampleRate: decoder.SampleRate,
		Channels:   decoder.NChannels,
		BitDepth:   decoder.BitsPerSample,
		PCM:        pcm,
	}
	if clip.Frames() == 0 {
		return nil, ErrNoFrames
	}

	clip.WAV, err = EncodeWAV(pcm, clip.SampleRate, clip.BitDepth, clip.Channels)
	if err != nil {
		return nil, err
	}
	return clip, nil
}

func transcodeAndDecode(ctx context.Context, data []byte, transcoder Transcoder) (*Clip, error) {
	if transcoder == nil {
		return nil, ErrTranscoderMissing
	}
	wavData, err := transcoder.ToWAV(ctx, data)
	if err != nil {
		return nil, err
	}
	return decodeWAV(wavData)
}

// readLESample reads one signed little endian sample of the given bit depth
func readLESample(b []byte, bitDepth int) int {
	switch bitDepth {
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= -0x1000000
		}
		return int(v)
	case 32:
		return int(int32(binary.LittleEndian.Uint32(b)))
	default:
		return 0
	}
}

// getAudioDivisor returns the full scale value for normalizing integer samples
func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

// bufferFormat describes the PCM layout of a clip for the WAV encoder
func bufferFormat(sampleRate, channels int) *audio.Format {
	return &audio.Format{SampleRate: sampleRate, NumChannels: channels}
}
