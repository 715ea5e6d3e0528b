package process

import "time"

// State represents whether the supervisor currently holds a process.
type State string

// Supervisor states.
const (
	StateIdle    State = "idle"    // No process held
	StateRunning State = "running" // A process handle is held
)

// Info contains information about the supervised process.
// For StateIdle only State is set.
type Info struct {
	State     State
	PID       int
	Command   string
	Args      []string
	StartedAt time.Time
	// Exited is true when the process has exited on its own while still held.
	Exited bool
}

// Outcome describes how a successful Stop completed.
type Outcome string

// Stop outcomes.
const (
	OutcomeStopped                   Outcome = "stopped"
	OutcomeStoppedWithCleanupWarning Outcome = "stopped_with_cleanup_warning"
)

// StopResult reports the result of a Stop that terminated the process.
type StopResult struct {
	Outcome Outcome
	PID     int
	// CleanupErr is the sweep failure when Outcome is OutcomeStoppedWithCleanupWarning.
	CleanupErr error
}
