package process

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/doorbell/internal/logging"
)

// StateChangeCallback is called on every state change, in transition order.
// It runs under the supervisor lock, so it must not block or call back into
// the Supervisor.
type StateChangeCallback func(oldState, newState State, info Info)

// SupervisorOptions configures a new Supervisor.
type SupervisorOptions struct {
	// Launcher spawns the process (required).
	Launcher Launcher

	// Sweeper runs the cleanup sweep after a successful stop (optional).
	Sweeper Sweeper

	// CleanupPattern is passed to Sweeper. Empty disables the sweep.
	CleanupPattern string

	// OnStateChange is called when the supervisor transitions between idle and running (optional).
	OnStateChange StateChangeCallback

	// Logger for supervisor operations. If nil, uses slog.Default().
	Logger logging.Logger
}

// supervised is the process currently held by the supervisor.
type supervised struct {
	handle    Handle
	command   string
	args      []string
	startedAt time.Time
}

func (s *supervised) info() Info {
	return Info{
		State:     StateRunning,
		PID:       s.handle.PID(),
		Command:   s.command,
		Args:      slices.Clone(s.args),
		StartedAt: s.startedAt,
		Exited:    s.handle.Exited(),
	}
}

// Supervisor holds zero or one external process.
type Supervisor struct {
	mu      sync.Mutex
	slot    *supervised
	opts    SupervisorOptions
	logger  logging.Logger
	nowFunc func() time.Time
}

// NewSupervisor creates a supervisor in the idle state.
func NewSupervisor(opts *SupervisorOptions) *Supervisor {
	if opts == nil || opts.Launcher == nil {
		panic("SupervisorOptions with Launcher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		opts:    *opts,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Start spawns command with args unless a process is already held.
// A held process is rejected with ErrAlreadyRunning before any syscall.
// Spawn failures are returned as *SpawnError and leave the supervisor idle.
func (s *Supervisor) Start(command string, args []string) (Info, error) {
	s.mu.Lock()

	if s.slot != nil {
		pid := s.slot.handle.PID()
		s.mu.Unlock()
		s.logger.Warn("Process already running", "pid", pid)
		return Info{}, ErrAlreadyRunning
	}

	handle, err := s.opts.Launcher.Spawn(command, args)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("Failed to start process", "command", command, "args", args, "error", err)
		return Info{}, &SpawnError{Command: command, Err: err}
	}

	s.slot = &supervised{
		handle:    handle,
		command:   command,
		args:      slices.Clone(args),
		startedAt: s.nowFunc(),
	}
	info := s.slot.info()
	s.notifyStateChange(StateIdle, StateRunning, info)
	s.mu.Unlock()

	s.logger.Info("Process started", "pid", info.PID, "command", command, "args", args)
	return info, nil
}

// Stop terminates the held process.
//
// The handle is removed before termination is attempted, so the supervisor is
// idle afterwards even when termination fails (*StopError). After a successful
// termination the cleanup sweep runs; its failure is reported through
// StopResult.Outcome rather than as an error.
func (s *Supervisor) Stop() (StopResult, error) {
	s.mu.Lock()
	proc := s.slot
	if proc == nil {
		s.mu.Unlock()
		s.logger.Warn("Process not running")
		return StopResult{}, ErrNotRunning
	}
	s.slot = nil
	info := proc.info()
	s.notifyStateChange(StateRunning, StateIdle, info)
	s.mu.Unlock()

	pid := info.PID

	s.logger.Info("Stopping process", "pid", pid)
	if err := proc.handle.Terminate(); err != nil {
		s.logger.Error("Failed to stop process", "pid", pid, "error", err)
		return StopResult{}, &StopError{PID: pid, Err: err}
	}
	s.logger.Info("Process terminated", "pid", pid)

	result := StopResult{Outcome: OutcomeStopped, PID: pid}
	if s.opts.Sweeper == nil || s.opts.CleanupPattern == "" {
		return result, nil
	}

	if err := s.opts.Sweeper.Sweep(s.opts.CleanupPattern); err != nil {
		s.logger.Warn("Process stopped, but cleanup failed", "pid", pid, "pattern", s.opts.CleanupPattern, "error", err)
		result.Outcome = OutcomeStoppedWithCleanupWarning
		result.CleanupErr = err
		return result, nil
	}

	s.logger.Info("Cleanup sweep completed", "pattern", s.opts.CleanupPattern)
	return result, nil
}

// Status reports whether a process is held.
func (s *Supervisor) Status() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slot == nil {
		return Info{State: StateIdle}
	}
	return s.slot.info()
}

// IsRunning reports whether a process is held.
func (s *Supervisor) IsRunning() bool {
	return s.Status().State == StateRunning
}

// notifyStateChange invokes the OnStateChange callback if configured.
func (s *Supervisor) notifyStateChange(oldState, newState State, info Info) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(oldState, newState, info)
	}
}
