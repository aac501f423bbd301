package myaudio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

// FFmpeg runs the ffmpeg binary for transcoding and stream level concatenation
type FFmpeg struct {
	Path    string
	Timeout time.Duration
	log     logger.Logger
}

// NewFFmpeg creates an ffmpeg runner. A zero timeout means one minute.
func NewFFmpeg(path string, timeout time.Duration, log logger.Logger) *FFmpeg {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &FFmpeg{Path: path, Timeout: timeout, log: log.Module("ffmpeg")}
}

// Available reports whether the configured binary can be resolved
func (f *FFmpeg) Available() bool {
	if f == nil || f.Path == "" {
		return false
	}
	_, err := exec.LookPath(f.Path)
	return err == nil
}

// ToWAV transcodes a compressed submission through a transient directory and
// returns 16 bit PCM WAV at the source sample rate and channel count.
func (f *FFmpeg) ToWAV(ctx context.Context, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "teqst-transcode-")
	if err != nil {
		return nil, fmt.Errorf("failed to create transcode directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			f.log.Warn("failed to remove transcode directory", logger.String("dir", dir), logger.Error(err))
		}
	}()

	input := filepath.Join(dir, "input")
	output := filepath.Join(dir, "output.wav")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write transcode input: %w", err)
	}

	if err := f.run(ctx, "-i", input, "-vn", "-c:a", "pcm_s16le", "-f", "wav", output); err != nil {
		return nil, err
	}

	wavData, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcode output: %w", err)
	}
	return wavData, nil
}

// Concat joins the input files in order into outputPath with the concat demuxer.
// Streams are copied, never re-encoded. The output is written to a temporary
// sibling first and renamed into place on success.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat requires at least one input")
	}

	manifest, err := os.CreateTemp(filepath.Dir(outputPath), ".concat-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat manifest: %w", err)
	}
	manifestPath := manifest.Name()
	defer func() { _ = os.Remove(manifestPath) }()

	if _, err := manifest.WriteString(BuildConcatManifest(inputs)); err != nil {
		_ = manifest.Close()
		return fmt.Errorf("failed to write concat manifest: %w", err)
	}
	if err := manifest.Close(); err != nil {
		return fmt.Errorf("failed to close concat manifest: %w", err)
	}

	tempPath := outputPath + tempExt + filepath.Ext(outputPath)
	if err := f.run(ctx, "-f", "concat", "-safe", "0", "-i", manifestPath, "-c", "copy", tempPath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary audio file to final output: %w", err)
	}
	return nil
}

const tempExt = ".temp"

// BuildConcatManifest renders the concat demuxer input list. Single quotes in
// paths are escaped the way the demuxer expects.
func BuildConcatManifest(inputs []string) string {
	var b strings.Builder
	for _, in := range inputs {
		escaped := strings.ReplaceAll(in, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	if f.Path == "" {
		return errors.Newf("ffmpeg path not configured").
			Component("myaudio").
			Category(errors.CategoryConfiguration).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	fullArgs := append([]string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}, args...)
	cmd := exec.CommandContext(ctx, f.Path, fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return errors.New(fmt.Errorf("ffmpeg failed: %w", err)).
			Component("myaudio").
			Category(errors.CategoryCommandExec).
			Context("stderr", strings.TrimSpace(stderr.String())).
			Timing("ffmpeg", time.Since(start)).
			Build()
	}

	f.log.Debug("ffmpeg completed",
		logger.String("args", strings.Join(args, " ")),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}
