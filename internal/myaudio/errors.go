package myaudio

import "github.com/TEQST/TEQST-Backend-sub000/internal/errors"

// Sentinel errors for audio decoding. Callers receive them wrapped in a
// CategoryDecode error and can match with errors.Is.
var (
	ErrEmptyAudio          = errors.NewStd("audio data is empty")
	ErrUnknownFormat       = errors.NewStd("audio format not recognized")
	ErrInvalidWAV          = errors.NewStd("invalid WAV file format")
	ErrUnsupportedBitDepth = errors.NewStd("unsupported bit depth")
	ErrUnsupportedEncoding = errors.NewStd("unsupported WAV encoding, only integer PCM is accepted")
	ErrNoFrames            = errors.NewStd("audio contains no sample frames")
	ErrTranscoderMissing   = errors.NewStd("no transcoder configured for compressed audio")
	ErrFormatMismatch      = errors.NewStd("segments do not share sample rate, channels and bit depth")
)
