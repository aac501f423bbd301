package myaudio

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// seekableBuffer is an in-memory io.WriteSeeker so the WAV encoder can
// patch its header sizes after writing the samples.
type seekableBuffer struct {
	buf []byte
	pos int
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + len(p)
	if end > len(s.buf) {
		if end > cap(s.buf) {
			grown := make([]byte, end, max(end, 2*cap(s.buf)))
			copy(grown, s.buf)
			s.buf = grown
		} else {
			s.buf = s.buf[:end]
		}
	}
	copy(s.buf[s.pos:], p)
	s.pos = end
	return len(p), nil
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.pos) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position %d", abs)
	}
	s.pos = int(abs)
	return abs, nil
}

func (s *seekableBuffer) Bytes() []byte {
	return s.buf
}

// EncodeWAV renders interleaved integer PCM samples as a RIFF/WAVE file
func EncodeWAV(pcm []int, sampleRate, bitDepth, channels int) ([]byte, error) {
	out := &seekableBuffer{}
	if err := WriteWAV(out, pcm, sampleRate, bitDepth, channels); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// WriteWAV encodes interleaved integer PCM samples into w
func WriteWAV(w io.WriteSeeker, pcm []int, sampleRate, bitDepth, channels int) error {
	if _, err := getAudioDivisor(bitDepth); err != nil {
		return err
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, wavFormatPCM)
	if err := enc.Write(&audio.IntBuffer{
		Data:           pcm,
		Format:         bufferFormat(sampleRate, channels),
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	// Close finalizes the header sizes
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return nil
}
