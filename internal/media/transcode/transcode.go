package transcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Thumbnails are rendered at a fixed size regardless of source resolution.
const thumbnailFilter = "scale=640:360:force_original_aspect_ratio=decrease,pad=640:360:(ow-iw)/2:(oh-ih)/2"

// Error describes a failed transcoder invocation, carrying the trimmed
// process output for diagnostics.
type Error struct {
	Op     string
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("transcode %s: %v: %s", e.Op, e.Err, e.Output)
	}
	return fmt.Sprintf("transcode %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Transcoder wraps ffmpeg/ffprobe invocations.
type Transcoder struct {
	ffmpegBinary  string
	ffprobeBinary string
	runner        CommandRunner
}

// New creates a transcoder using the given binaries. Empty names fall back to
// the executables on PATH.
func New(ffmpegBinary, ffprobeBinary string) *Transcoder {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Transcoder{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcoder) WithCommandRunner(runner CommandRunner) {
	t.runner = runner
}

func (t *Transcoder) run(ctx context.Context, op, name string, args ...string) ([]byte, error) {
	if t.runner != nil {
		output, err := t.runner(ctx, name, args...)
		if err != nil {
			return nil, &Error{Op: op, Output: strings.TrimSpace(string(output)), Err: err}
		}
		return output, nil
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &Error{Op: op, Output: strings.TrimSpace(string(output)), Err: err}
	}
	return output, nil
}

// ExtractAudio produces a mono 16 kHz PCM WAV from the source's audio track.
func (t *Transcoder) ExtractAudio(ctx context.Context, src, dest string) error {
	args := []string{
		"-y", "-v", "error",
		"-i", src,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		dest,
	}
	if _, err := t.run(ctx, "extract audio", t.ffmpegBinary, args...); err != nil {
		return err
	}
	return requireOutput("extract audio", dest)
}

// ExtractThumbnail renders a single JPEG frame at the normalized timestamp
// (0.5 = temporal midpoint) at a fixed output size.
func (t *Transcoder) ExtractThumbnail(ctx context.Context, src string, fraction float64, dest string) error {
	if fraction < 0 || fraction > 1 {
		return &Error{Op: "extract thumbnail", Err: fmt.Errorf("fraction %v out of range", fraction)}
	}

	duration, err := t.ProbeDuration(ctx, src)
	if err != nil {
		return err
	}
	timestamp := duration * fraction

	args := []string{
		"-y", "-v", "error",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", src,
		"-frames:v", "1",
		"-vf", thumbnailFilter,
		dest,
	}
	if _, err := t.run(ctx, "extract thumbnail", t.ffmpegBinary, args...); err != nil {
		return err
	}
	return requireOutput("extract thumbnail", dest)
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration returns the container duration in seconds, or 0 when the
// container does not report one.
func (t *Transcoder) ProbeDuration(ctx context.Context, src string) (float64, error) {
	args := []string{
		"-v", "error", "-hide_banner",
		"-show_format",
		"-of", "json",
		"--", src,
	}
	output, err := t.run(ctx, "probe duration", t.ffprobeBinary, args...)
	if err != nil {
		return 0, err
	}

	var probe probeFormat
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, &Error{Op: "probe duration", Output: strings.TrimSpace(string(output)), Err: err}
	}

	raw := strings.TrimSpace(probe.Format.Duration)
	if raw == "" {
		return 0, nil
	}
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil || duration < 0 {
		return 0, nil
	}
	return duration, nil
}

func requireOutput(op, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("output missing: %w", err)}
	}
	if info.Size() == 0 {
		return &Error{Op: op, Err: errors.New("output file is empty")}
	}
	return nil
}
