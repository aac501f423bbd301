package myaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   Format
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), FormatWAV},
		{"riff but not wave", []byte("RIFF\x24\x00\x00\x00AVI LIST"), FormatUnknown},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), FormatFLAC},
		{"ogg", []byte("OggS\x00\x02"), FormatOgg},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F}, FormatWebM},
		{"mp3 id3", []byte("ID3\x04\x00\x00"), FormatMP3},
		{"mp3 sync", []byte{0xFF, 0xFB, 0x90, 0x64}, FormatMP3},
		{"mp4", []byte("\x00\x00\x00\x20ftypisom"), FormatMP4},
		{"too short", []byte("RI"), FormatUnknown},
		{"text", []byte("hello world!"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectFormat(tt.header))
		})
	}
}

func TestReadLESample(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -2, readLESample([]byte{0xFE, 0xFF}, 16))
	assert.Equal(t, 32767, readLESample([]byte{0xFF, 0x7F}, 16))
	assert.Equal(t, -1, readLESample([]byte{0xFF, 0xFF, 0xFF}, 24))
	assert.Equal(t, 8388607, readLESample([]byte{0xFF, 0xFF, 0x7F}, 24))
	assert.Equal(t, -8388608, readLESample([]byte{0x00, 0x00, 0x80}, 24))
	assert.Equal(t, -2147483648, readLESample([]byte{0x00, 0x00, 0x00, 0x80}, 32))
}

func TestSeekableBufferPatchesHeader(t *testing.T) {
	t.Parallel()

	buf := &seekableBuffer{}
	_, _ = buf.Write([]byte("abcdef"))
	_, err := buf.Seek(1, 0)
	assert.NoError(t, err)
	_, _ = buf.Write([]byte("XY"))
	assert.Equal(t, "aXYdef", string(buf.Bytes()))

	_, err = buf.Seek(-10, 1)
	assert.Error(t, err)
}

func TestBuildConcatManifest(t *testing.T) {
	t.Parallel()

	got := BuildConcatManifest([]string{"/data/a.wav", "/data/it's.wav"})
	assert.Equal(t, "file '/data/a.wav'\nfile '/data/it'\\''s.wav'\n", got)
}
