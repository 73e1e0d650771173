// Package audio transcodes downloaded files to MP3 with FFmpeg and writes
// their ID3 tags.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBitrate    = "320k"
	defaultID3Version = "3"
	defaultTimeout    = 5 * time.Minute
)

var (
	ErrEmptyInput  = errors.New("input is empty")
	ErrEmptyOutput = errors.New("output file is empty")
)

// TranscodeError wraps a failed FFmpeg run with its command and output.
type TranscodeError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s\nCommand: %s\nOutput: %s", e.Err, e.Cmd, e.Output)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// newTranscodeError creates a TranscodeError with truncated command output
func newTranscodeError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	out := string(output)
	if len(out) > 2000 {
		out = "..." + out[len(out)-2000:]
	}
	return &TranscodeError{Cmd: cmdStr, Output: out, Err: err}
}

type ffmpeg struct {
	bin     string
	bitrate string
	timeout time.Duration
	tempDir string
}

// FFmpegOption configures the FFmpeg transcoder.
type FFmpegOption func(*ffmpeg)

func WithBinary(bin string) FFmpegOption {
	return func(f *ffmpeg) {
		if bin != "" {
			f.bin = bin
		}
	}
}

func WithTimeout(d time.Duration) FFmpegOption {
	return func(f *ffmpeg) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithBitrate(bitrate string) FFmpegOption {
	return func(f *ffmpeg) {
		if bitrate != "" {
			f.bitrate = bitrate
		}
	}
}

// WithTempDir sets where raw downloads are staged before transcoding.
func WithTempDir(dir string) FFmpegOption {
	return func(f *ffmpeg) {
		if dir != "" {
			f.tempDir = dir
		}
	}
}

func NewFFMPEGEngine(opts ...FFmpegOption) *ffmpeg {
	f := &ffmpeg{
		bin:     "ffmpeg",
		bitrate: defaultBitrate,
		timeout: defaultTimeout,
		tempDir: os.TempDir(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Transcode writes data to a temporary file and converts it to an MP3 at
// destPath. The temporary file is always removed.
func (f *ffmpeg) Transcode(ctx context.Context, data []byte, destPath string) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	input := filepath.Join(f.tempDir, uuid.NewString()+".bin")
	if err := os.WriteFile(input, data, 0644); err != nil {
		return fmt.Errorf("failed to stage input: %w", err)
	}
	defer os.Remove(input)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	slog.Debug("Transcoding", "input", input, "output", destPath, "size", len(data))

	cmd := exec.CommandContext(ctx, f.bin,
		"-y",
		"-i", input,
		"-map", "0:a:0",
		"-c:a", "libmp3lame",
		"-b:a", f.bitrate,
		"-id3v2_version", defaultID3Version,
		destPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(destPath)
		if ctx.Err() != nil {
			return &TranscodeError{Cmd: cmd.String(), Err: ctx.Err()}
		}
		return newTranscodeError(cmd, output, err)
	}

	return validateFile(destPath)
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to access file: %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyOutput, path)
	}
	return nil
}
