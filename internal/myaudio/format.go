package myaudio

import "bytes"

// Format identifies an audio container by its header
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatOgg     Format = "ogg"
	FormatWebM    Format = "webm"
	FormatMP3     Format = "mp3"
	FormatMP4     Format = "mp4"
)

const (
	// audioHeaderSize is the number of bytes inspected for format detection
	audioHeaderSize = 12

	// riffHeaderOffset is the offset for WAVE format check in RIFF files
	riffHeaderOffset = 8

	// mp3SyncByteMask is the mask for MP3 frame sync validation
	mp3SyncByteMask = 0xE0
)

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// DetectFormat sniffs the container format from the leading bytes of data
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	header := data[:min(len(data), audioHeaderSize)]

	switch {
	case len(header) >= audioHeaderSize && bytes.HasPrefix(header, []byte("RIFF")) &&
		bytes.Equal(header[riffHeaderOffset:audioHeaderSize], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatOgg
	case bytes.HasPrefix(header, ebmlMagic):
		return FormatWebM
	case bytes.HasPrefix(header, []byte("ID3")),
		header[0] == 0xFF && header[1]&mp3SyncByteMask == mp3SyncByteMask:
		return FormatMP3
	case len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp")):
		return FormatMP4
	default:
		return FormatUnknown
	}
}
