package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/smazurov/doorbell/internal/ffmpeg"
	"github.com/smazurov/doorbell/internal/logging"
)

// DefaultTimeout bounds a single frame grab.
const DefaultTimeout = 10 * time.Second

// ErrCaptureFailed is matched by every CaptureError.
var ErrCaptureFailed = errors.New("screenshot capture failed")

// CaptureError carries the ffmpeg diagnostic output verbatim.
type CaptureError struct {
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CaptureError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg failed: %s", strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("ffmpeg failed: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *CaptureError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCaptureFailed.
func (e *CaptureError) Is(target error) bool { return target == ErrCaptureFailed }

// Capturer grabs a single frame from inputURL into outputPath.
type Capturer interface {
	CaptureFrame(ctx context.Context, inputURL, outputPath string) error
}

// Config configures an FFmpegCapturer.
type Config struct {
	FFmpegPath string // defaults to ffmpeg on PATH
	Timeout    time.Duration
	Quality    int
	Options    []ffmpeg.OptionType
	Logger     logging.Logger
}

// FFmpegCapturer runs ffmpeg once per capture.
type FFmpegCapturer struct {
	binary  string
	timeout time.Duration
	quality int
	options []ffmpeg.OptionType
	logger  logging.Logger
}

// New creates an FFmpegCapturer.
func New(cfg Config) *FFmpegCapturer {
	binary := cfg.FFmpegPath
	if binary == "" {
		binary = ffmpeg.DefaultBinary
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetLogger("capture")
	}
	return &FFmpegCapturer{
		binary:  binary,
		timeout: timeout,
		quality: cfg.Quality,
		options: cfg.Options,
		logger:  logger,
	}
}

// CaptureFrame writes one JPEG frame from inputURL to outputPath.
// The output directory is created if missing.
func (c *FFmpegCapturer) CaptureFrame(ctx context.Context, inputURL, outputPath string) error {
	args, err := ffmpeg.BuildSnapshotArgs(ffmpeg.SnapshotParams{
		InputURL:   inputURL,
		OutputPath: outputPath,
		Quality:    c.quality,
		Options:    c.options,
	})
	if err != nil {
		return &CaptureError{ExitCode: -1, Err: err}
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &CaptureError{ExitCode: -1, Err: fmt.Errorf("failed to create output directory %s: %w", dir, err)}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	c.logger.Debug("Running ffmpeg", "binary", c.binary, "args", strings.Join(args, " "))

	runErr := cmd.Run()
	c.logOutput(stderr.String())

	if runErr != nil {
		if ctx.Err() != nil {
			runErr = fmt.Errorf("capture timed out after %s: %w", c.timeout, ctx.Err())
		}
		return &CaptureError{
			Stderr:   stderr.String(),
			ExitCode: exitCode(runErr),
			Err:      runErr,
		}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return &CaptureError{Stderr: stderr.String(), Err: fmt.Errorf("ffmpeg produced no output: %w", err)}
	}

	return nil
}

// logOutput forwards ffmpeg's level-prefixed lines to the logger.
func (c *FFmpegCapturer) logOutput(output string) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		level, msg := ffmpeg.ParseLogLevel(line)
		switch level {
		case "quiet", "panic", "fatal", "error":
			c.logger.Error(msg)
		case "warning":
			c.logger.Warn(msg)
		case "info":
			c.logger.Info(msg)
		default:
			c.logger.Debug(msg)
		}
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
