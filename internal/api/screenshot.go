package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/doorbell/internal/api/models"
	"github.com/smazurov/doorbell/internal/capture"
	"github.com/smazurov/doorbell/internal/ffmpeg"
	"github.com/smazurov/doorbell/internal/storage"
)

// registerScreenshotRoutes registers the capture endpoint.
func (s *Server) registerScreenshotRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "capture-screenshot",
		Method:      http.MethodPost,
		Path:        "/screenshot",
		Summary:     "Capture Screenshot",
		Description: "Grab one frame from the camera stream and upload it to object storage",
		Tags:        []string{"screenshot"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.ScreenshotResponse, error) {
		result, err := s.snapshot.Capture(ctx)
		if err != nil {
			return nil, screenshotError(err)
		}

		return &models.ScreenshotResponse{
			Body: models.ScreenshotData{
				Status:    "success",
				Message:   "Screenshot uploaded",
				URL:       result.URL,
				Key:       result.Key,
				LocalPath: result.LocalPath,
				Size:      result.Size,
				Timestamp: result.CapturedAt,
			},
		}, nil
	})
}

// registerOptionsRoutes exposes the supported ffmpeg input options.
func (s *Server) registerOptionsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-capture-options",
		Method:      http.MethodGet,
		Path:        "/screenshot/options",
		Summary:     "Get Capture Options",
		Description: "List the ffmpeg input options accepted by capture.options",
		Tags:        []string{"screenshot"},
	}, func(_ context.Context, _ *struct{}) (*models.OptionsResponse, error) {
		return &models.OptionsResponse{
			Body: models.OptionsData{Options: ffmpeg.AllOptions},
		}, nil
	})
}

// screenshotError keeps capture and upload failures distinguishable.
func screenshotError(err error) error {
	var uploadErr *storage.UploadError
	switch {
	case errors.As(err, &uploadErr):
		return huma.Error500InternalServerError(
			fmt.Sprintf("Screenshot saved locally at %s, but upload failed", uploadErr.LocalPath), err)
	case errors.Is(err, capture.ErrCaptureFailed):
		return huma.Error500InternalServerError("Failed to capture screenshot", err)
	default:
		return huma.Error500InternalServerError("Screenshot failed", err)
	}
}
