// Package snapshot captures a frame from the camera stream and uploads it.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/smazurov/doorbell/internal/capture"
	"github.com/smazurov/doorbell/internal/events"
	"github.com/smazurov/doorbell/internal/logging"
	"github.com/smazurov/doorbell/internal/metrics"
	"github.com/smazurov/doorbell/internal/storage"
)

// TimestampFormat names screenshot files and object keys.
const TimestampFormat = "2006-01-02_15-04-05"

// Defaults for the camera feed published by MediaMTX.
const (
	DefaultInputURL  = "rtsp://localhost:8554/cam"
	DefaultOutputDir = "/tmp"
)

// Stage values reported in ScreenshotFailedEvent.
const (
	StageCapture = "capture"
	StageUpload  = "upload"
)

// Publisher receives snapshot events.
type Publisher interface {
	Publish(ev events.Event)
}

// Result describes a completed capture and upload.
type Result struct {
	URL        string
	Key        string
	LocalPath  string
	Size       int64
	CapturedAt time.Time
}

// Options configures a Service.
type Options struct {
	Capturer  capture.Capturer
	Uploader  storage.Uploader
	InputURL  string
	OutputDir string
	Prefix    string
	Publisher Publisher
	Logger    logging.Logger
	Now       func() time.Time
}

// Service runs capture then upload. Captures are serialized.
type Service struct {
	capturer  capture.Capturer
	uploader  storage.Uploader
	inputURL  string
	outputDir string
	prefix    string
	publisher Publisher
	logger    logging.Logger
	now       func() time.Time
	mu        sync.Mutex
}

// New creates a snapshot service.
func New(opts Options) *Service {
	if opts.Capturer == nil || opts.Uploader == nil {
		panic("snapshot: Capturer and Uploader are required")
	}

	s := &Service{
		capturer:  opts.Capturer,
		uploader:  opts.Uploader,
		inputURL:  opts.InputURL,
		outputDir: opts.OutputDir,
		prefix:    opts.Prefix,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.inputURL == "" {
		s.inputURL = DefaultInputURL
	}
	if s.outputDir == "" {
		s.outputDir = DefaultOutputDir
	}
	if s.logger == nil {
		s.logger = logging.GetLogger("snapshot")
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Capture grabs one frame and uploads it.
// A capture failure returns a *capture.CaptureError and nothing is uploaded.
// An upload failure returns a *storage.UploadError; the local file is kept.
func (s *Service) Capture(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	capturedAt := s.now()
	timestamp := capturedAt.Format(TimestampFormat)
	localPath := filepath.Join(s.outputDir, fmt.Sprintf("screenshot_%s.jpg", timestamp))
	key := storage.ObjectKey(s.prefix, timestamp)

	s.logger.Info("Capturing screenshot", "input", s.inputURL, "path", localPath)

	if err := s.capturer.CaptureFrame(ctx, s.inputURL, localPath); err != nil {
		s.logger.Error("Screenshot capture failed", "input", s.inputURL, "error", err)
		metrics.RecordSnapshot(metrics.ResultCaptureFailed, time.Since(started))
		s.publishFailure(StageCapture, "", err)
		return Result{}, err
	}

	result := Result{Key: key, LocalPath: localPath, CapturedAt: capturedAt}
	if info, err := os.Stat(localPath); err == nil {
		result.Size = info.Size()
	}

	url, err := s.uploader.Upload(ctx, key, localPath)
	if err != nil {
		var uploadErr *storage.UploadError
		if !errors.As(err, &uploadErr) {
			err = &storage.UploadError{Key: key, LocalPath: localPath, Err: err}
		}
		s.logger.Error("Screenshot upload failed", "key", key, "path", localPath, "error", err)
		metrics.RecordSnapshot(metrics.ResultUploadFailed, time.Since(started))
		s.publishFailure(StageUpload, localPath, err)
		return result, err
	}
	result.URL = url

	s.logger.Info("Screenshot uploaded", "key", key, "url", url, "size", result.Size)
	metrics.RecordSnapshot(metrics.ResultSuccess, time.Since(started))
	s.publish(events.ScreenshotCapturedEvent{
		URL:       url,
		Key:       key,
		LocalPath: localPath,
		Size:      result.Size,
		Timestamp: capturedAt.Format(time.RFC3339),
	})

	return result, nil
}

func (s *Service) publishFailure(stage, localPath string, err error) {
	s.publish(events.ScreenshotFailedEvent{
		Stage:     stage,
		LocalPath: localPath,
		Error:     err.Error(),
		Timestamp: s.now().Format(time.RFC3339),
	})
}

func (s *Service) publish(ev events.Event) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}
