package process

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Supervisor.
var (
	ErrAlreadyRunning = errors.New("process already running")
	ErrNotRunning     = errors.New("process not running")
	ErrSpawnFailed    = errors.New("failed to start process")
	ErrStopFailed     = errors.New("failed to stop process")
	ErrCleanupFailed  = errors.New("cleanup sweep failed")
)

// SpawnError wraps a failure to create the process.
// It matches ErrSpawnFailed with errors.Is.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SpawnError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSpawnFailed.
func (e *SpawnError) Is(target error) bool { return target == ErrSpawnFailed }

// StopError wraps a failure to terminate the process.
// The handle has already been discarded when this is returned.
type StopError struct {
	PID int
	Err error
}

func (e *StopError) Error() string {
	return fmt.Sprintf("failed to stop process %d: %v", e.PID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StopError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStopFailed.
func (e *StopError) Is(target error) bool { return target == ErrStopFailed }

// CleanupError describes a cleanup sweep that did not exit cleanly.
type CleanupError struct {
	Pattern  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CleanupError) Error() string {
	if e.Err != nil && e.ExitCode < 0 {
		return fmt.Sprintf("cleanup sweep for %q failed to run: %v", e.Pattern, e.Err)
	}
	if e.Err != nil && e.ExitCode == 0 {
		return fmt.Sprintf("cleanup sweep for %q: %v", e.Pattern, e.Err)
	}
	if e.Output != "" {
		return fmt.Sprintf("cleanup sweep for %q exited with code %d: %s", e.Pattern, e.ExitCode, e.Output)
	}
	return fmt.Sprintf("cleanup sweep for %q exited with code %d", e.Pattern, e.ExitCode)
}

// Unwrap returns the underlying cause.
func (e *CleanupError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCleanupFailed.
func (e *CleanupError) Is(target error) bool { return target == ErrCleanupFailed }
