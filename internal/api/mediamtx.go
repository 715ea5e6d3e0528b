package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/doorbell/internal/api/models"
	"github.com/smazurov/doorbell/internal/process"
)

// registerMediaMTXRoutes registers the process control endpoints.
func (s *Server) registerMediaMTXRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-mediamtx",
		Method:      http.MethodPost,
		Path:        "/start",
		Summary:     "Start MediaMTX",
		Description: "Spawn the MediaMTX server. Fails with 409 when it is already running.",
		Tags:        []string{"mediamtx"},
		Errors:      []int{409, 500},
	}, func(_ context.Context, _ *struct{}) (*models.StartResponse, error) {
		info, err := s.mediamtx.Start()
		if err != nil {
			return nil, processError(err)
		}
		return &models.StartResponse{
			Body: models.StartData{
				Status:    "started",
				Message:   fmt.Sprintf("MediaMTX started with PID %d", info.PID),
				PID:       info.PID,
				StartedAt: info.StartedAt,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-mediamtx",
		Method:      http.MethodPost,
		Path:        "/stop",
		Summary:     "Stop MediaMTX",
		Description: "Terminate MediaMTX and sweep stray instances. Fails with 409 when it is not running. " +
			"A failed sweep still reports success with status stopped_with_cleanup_warning.",
		Tags:   []string{"mediamtx"},
		Errors: []int{409, 500},
	}, func(_ context.Context, _ *struct{}) (*models.StopResponse, error) {
		result, err := s.mediamtx.Stop()
		if err != nil {
			return nil, processError(err)
		}

		data := models.StopData{
			Status:  string(result.Outcome),
			Message: "MediaMTX stopped",
			PID:     result.PID,
		}
		if result.Outcome == process.OutcomeStoppedWithCleanupWarning {
			data.Message = "MediaMTX stopped, but cleanup failed"
			if result.CleanupErr != nil {
				data.Warning = result.CleanupErr.Error()
			}
		}
		return &models.StopResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-mediamtx-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "MediaMTX Status",
		Description: "Report whether MediaMTX is running and, when the MediaMTX API is reachable, whether the camera path is ready",
		Tags:        []string{"mediamtx"},
	}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
		info := s.mediamtx.Status()
		data := models.StatusData{State: string(info.State)}

		if info.State == process.StateRunning {
			startedAt := info.StartedAt
			data.PID = info.PID
			data.Command = info.Command
			data.Args = info.Args
			data.StartedAt = &startedAt
			data.Uptime = time.Since(startedAt).Truncate(time.Second).String()
			data.Exited = info.Exited

			if path := s.mediamtx.Stream(ctx); path != nil {
				data.Stream = &models.StreamData{
					Path:   path.Name,
					Ready:  path.Ready,
					Tracks: path.Tracks,
				}
			}
		}

		return &models.StatusResponse{Body: data}, nil
	})
}

// processError maps supervisor errors to HTTP errors.
func processError(err error) error {
	switch {
	case errors.Is(err, process.ErrAlreadyRunning):
		return huma.Error409Conflict("MediaMTX is already running", err)
	case errors.Is(err, process.ErrNotRunning):
		return huma.Error409Conflict("MediaMTX is not running", err)
	case errors.Is(err, process.ErrSpawnFailed):
		return huma.Error500InternalServerError("Failed to start MediaMTX", err)
	case errors.Is(err, process.ErrStopFailed):
		return huma.Error500InternalServerError("Failed to stop MediaMTX", err)
	default:
		return huma.Error500InternalServerError("MediaMTX operation failed", err)
	}
}
