package mediamtx

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smazurov/doorbell/internal/events"
	"github.com/smazurov/doorbell/internal/logging"
	"github.com/smazurov/doorbell/internal/metrics"
	"github.com/smazurov/doorbell/internal/process"
)

// Supervisor is the process slot the service drives.
type Supervisor interface {
	Start(command string, args []string) (process.Info, error)
	Stop() (process.StopResult, error)
	Status() process.Info
}

// Publisher receives process lifecycle events.
type Publisher interface {
	Publish(ev events.Event)
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Supervisor Supervisor
	Binary     string
	Args       []string
	Publisher  Publisher
	// Client and PathName enable stream readiness reporting (optional).
	Client   *Client
	PathName string
}

// Service starts and stops the MediaMTX binary through a Supervisor.
type Service struct {
	supervisor Supervisor
	binary     string
	args       []string
	publisher  Publisher
	client     *Client
	pathName   string
	logger     *slog.Logger
}

// NewService creates a MediaMTX service.
func NewService(opts ServiceOptions) *Service {
	if opts.Supervisor == nil {
		panic("mediamtx: Supervisor is required")
	}
	binary := opts.Binary
	args := opts.Args
	if binary == "" {
		binary = DefaultBinary
		if args == nil {
			args = []string{DefaultConfigFile}
		}
	}
	pathName := opts.PathName
	if pathName == "" {
		pathName = DefaultPathName
	}
	return &Service{
		supervisor: opts.Supervisor,
		binary:     binary,
		args:       args,
		publisher:  opts.Publisher,
		client:     opts.Client,
		pathName:   pathName,
		logger:     logging.GetLogger("mediamtx"),
	}
}

// Command returns the binary and arguments used by Start.
func (s *Service) Command() (string, []string) {
	return s.binary, s.args
}

// Start launches MediaMTX.
func (s *Service) Start() (process.Info, error) {
	info, err := s.supervisor.Start(s.binary, s.args)
	metrics.RecordSupervisorOperation("start", startResult(err))
	if err != nil {
		return info, err
	}

	s.publish(events.ProcessStartedEvent{
		PID:       info.PID,
		Command:   info.Command,
		Args:      info.Args,
		Timestamp: info.StartedAt.Format(time.RFC3339),
	})
	return info, nil
}

// Stop terminates MediaMTX and sweeps strays.
func (s *Service) Stop() (process.StopResult, error) {
	result, err := s.supervisor.Stop()
	metrics.RecordSupervisorOperation("stop", stopResult(result, err))

	switch {
	case errors.Is(err, process.ErrNotRunning):
		return result, err
	case err != nil:
		var stopErr *process.StopError
		pid := 0
		if errors.As(err, &stopErr) {
			pid = stopErr.PID
		}
		s.publish(events.ProcessStoppedEvent{
			PID:       pid,
			Outcome:   "stop_failed",
			Error:     err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return result, err
	}

	ev := events.ProcessStoppedEvent{
		PID:       result.PID,
		Outcome:   string(result.Outcome),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if result.CleanupErr != nil {
		ev.Error = result.CleanupErr.Error()
	}
	s.publish(ev)
	return result, nil
}

// Status reports the supervisor state.
func (s *Service) Status() process.Info {
	return s.supervisor.Status()
}

// Stream reports the readiness of the camera path.
// It returns nil when no API client is configured or MediaMTX is unreachable.
func (s *Service) Stream(ctx context.Context) *PathInfo {
	if s.client == nil {
		return nil
	}
	info, err := s.client.GetPath(ctx, s.pathName)
	if err != nil {
		if errors.Is(err, ErrPathNotFound) {
			return &PathInfo{Name: s.pathName}
		}
		s.logger.Debug("Stream status unavailable", "path", s.pathName, "error", err)
		return nil
	}
	return info
}

// Shutdown stops MediaMTX if it is running.
func (s *Service) Shutdown() {
	if s.supervisor.Status().State != process.StateRunning {
		return
	}
	if _, err := s.Stop(); err != nil && !errors.Is(err, process.ErrNotRunning) {
		s.logger.Error("Failed to stop MediaMTX on shutdown", "error", err)
	}
}

func (s *Service) publish(ev events.Event) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}

func startResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, process.ErrAlreadyRunning):
		return metrics.ResultAlreadyRunning
	default:
		return metrics.ResultSpawnFailed
	}
}

func stopResult(result process.StopResult, err error) string {
	switch {
	case errors.Is(err, process.ErrNotRunning):
		return metrics.ResultNotRunning
	case err != nil:
		return metrics.ResultStopFailed
	case result.Outcome == process.OutcomeStoppedWithCleanupWarning:
		return metrics.ResultCleanupWarning
	default:
		return metrics.ResultSuccess
	}
}
