package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/doorbell/internal/logging"
)

// Handle refers to a spawned process. Only the Supervisor holds one.
type Handle interface {
	// PID returns the OS process identifier.
	PID() int
	// Terminate kills the process.
	Terminate() error
	// Exited reports whether the process has already exited.
	Exited() bool
}

// Launcher spawns detached processes.
type Launcher interface {
	Spawn(command string, args []string) (Handle, error)
}

// Sweeper signals stray processes whose command line matches pattern.
type Sweeper interface {
	Sweep(pattern string) error
}

// ExecLauncher spawns processes with os/exec.
// Standard streams are not inherited; the child gets its own process group.
type ExecLauncher struct {
	logger      logging.Logger
	killTimeout time.Duration // how long Terminate waits for the process to be reaped
}

// NewExecLauncher creates a launcher backed by os/exec.
func NewExecLauncher(logger logging.Logger) *ExecLauncher {
	return &ExecLauncher{
		logger:      logger,
		killTimeout: 5 * time.Second,
	}
}

// Spawn starts command with args and returns its handle.
// The process is reaped in the background so it never lingers as a zombie.
func (l *ExecLauncher) Spawn(command string, args []string) (Handle, error) {
	if command == "" {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(command, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &execHandle{
		cmd:         cmd,
		done:        make(chan struct{}),
		killTimeout: l.killTimeout,
		logger:      l.logger,
	}
	go h.wait()

	return h, nil
}

type execHandle struct {
	cmd         *exec.Cmd
	done        chan struct{}
	waitErr     error
	mu          sync.Mutex
	killTimeout time.Duration
	logger      logging.Logger
}

func (h *execHandle) wait() {
	err := h.cmd.Wait()
	h.mu.Lock()
	h.waitErr = err
	h.mu.Unlock()
	close(h.done)
	h.logger.Debug("Process reaped", "pid", h.cmd.Process.Pid, "exit_code", exitCodeFromError(err))
}

func (h *execHandle) PID() int {
	return h.cmd.Process.Pid
}

func (h *execHandle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Terminate sends SIGKILL and waits up to killTimeout for the process to be reaped.
// A process that already exited counts as terminated.
func (h *execHandle) Terminate() error {
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	select {
	case <-h.done:
	case <-time.After(h.killTimeout):
		h.logger.Warn("Process did not exit after kill signal", "pid", h.PID(), "timeout", h.killTimeout)
	}
	return nil
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or -1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// PgrepSweeper lists processes matching a pattern with "pgrep -f" and sends
// them SIGTERM. The calling process and its parent are never signaled, even
// when their own command lines match.
type PgrepSweeper struct {
	binary string
	logger logging.Logger
}

// NewPgrepSweeper creates a sweeper that shells out to pgrep.
func NewPgrepSweeper(logger logging.Logger) *PgrepSweeper {
	return &PgrepSweeper{binary: "pgrep", logger: logger}
}

// Sweep signals every matching process except this one and its parent.
// A *CleanupError is returned when pgrep does not exit with 0 (exit 1 means
// nothing matched), when only this process matched, or when a signal fails.
func (s *PgrepSweeper) Sweep(pattern string) error {
	out, err := exec.Command(s.binary, "-f", pattern).Output()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return &CleanupError{
			Pattern:  pattern,
			ExitCode: exitCodeFromError(err),
			Output:   output,
			Err:      err,
		}
	}

	self, parent := os.Getpid(), os.Getppid()
	var targets []int
	for _, field := range strings.Fields(output) {
		pid, convErr := strconv.Atoi(field)
		if convErr != nil || pid == self || pid == parent {
			continue
		}
		targets = append(targets, pid)
	}
	if len(targets) == 0 {
		return &CleanupError{Pattern: pattern, ExitCode: 1, Output: "no processes matched besides this one"}
	}

	var signalErrs []error
	for _, pid := range targets {
		if err := signalProcess(pid, syscall.SIGTERM); err != nil {
			signalErrs = append(signalErrs, fmt.Errorf("pid %d: %w", pid, err))
			continue
		}
		s.logger.Debug("Cleanup sweep signaled process", "pattern", pattern, "pid", pid)
	}
	if len(signalErrs) > 0 {
		return &CleanupError{Pattern: pattern, Err: errors.Join(signalErrs...)}
	}
	return nil
}

func signalProcess(pid int, sig os.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// ParseCommand splits a command string into the program and its arguments.
// Handles quoted strings and basic escaping.
func ParseCommand(command string) (string, []string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	command = strings.TrimSpace(command)
	runes := []rune(command)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && i+1 < len(runes):
			i++ // Skip the backslash
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	if inQuote {
		return "", nil, fmt.Errorf("unclosed quote in command")
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}

	return args[0], args[1:], nil
}
