package process

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func supervisorTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeHandle struct {
	pid          int
	terminateErr error
	terminated   atomic.Bool
}

func (h *fakeHandle) PID() int     { return h.pid }
func (h *fakeHandle) Exited() bool { return h.terminated.Load() }
func (h *fakeHandle) Terminate() error {
	if h.terminateErr != nil {
		return h.terminateErr
	}
	h.terminated.Store(true)
	return nil
}

type fakeLauncher struct {
	mu           sync.Mutex
	spawns       int
	spawnErr     error
	terminateErr error
	delay        time.Duration
	handles      []*fakeHandle
}

func (l *fakeLauncher) Spawn(_ string, _ []string) (Handle, error) {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spawns++
	if l.spawnErr != nil {
		return nil, l.spawnErr
	}
	h := &fakeHandle{pid: 1000 + l.spawns, terminateErr: l.terminateErr}
	l.handles = append(l.handles, h)
	return h, nil
}

func (l *fakeLauncher) spawnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spawns
}

type fakeSweeper struct {
	mu       sync.Mutex
	err      error
	patterns []string
}

func (s *fakeSweeper) Sweep(pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	return s.err
}

func newTestSupervisor(l *fakeLauncher, sw *fakeSweeper) *Supervisor {
	opts := &SupervisorOptions{
		Launcher:       l,
		CleanupPattern: "mediamtx",
		Logger:         supervisorTestLogger(),
	}
	if sw != nil {
		opts.Sweeper = sw
	}
	return NewSupervisor(opts)
}

func TestSupervisorLifecycle(t *testing.T) {
	launcher := &fakeLauncher{}
	sweeper := &fakeSweeper{}
	sup := newTestSupervisor(launcher, sweeper)

	if got := sup.Status().State; got != StateIdle {
		t.Fatalf("initial state = %v, want %v", got, StateIdle)
	}

	info, err := sup.Start("/usr/local/bin/mediamtx", []string{"/etc/mediamtx/mediamtx.yml"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if info.PID != 1001 {
		t.Errorf("PID = %d, want 1001", info.PID)
	}
	if info.Command != "/usr/local/bin/mediamtx" {
		t.Errorf("Command = %q", info.Command)
	}
	if len(info.Args) != 1 || info.Args[0] != "/etc/mediamtx/mediamtx.yml" {
		t.Errorf("Args = %v", info.Args)
	}
	if info.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if got := sup.Status().State; got != StateRunning {
		t.Fatalf("state after start = %v, want %v", got, StateRunning)
	}

	if _, err := sup.Start("/usr/local/bin/mediamtx", nil); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRunning", err)
	}
	if launcher.spawnCount() != 1 {
		t.Errorf("spawn count = %d, want 1", launcher.spawnCount())
	}
	if got := sup.Status(); got.State != StateRunning || got.PID != 1001 {
		t.Errorf("status after rejected start = %+v", got)
	}

	result, err := sup.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if result.Outcome != OutcomeStopped {
		t.Errorf("Outcome = %v, want %v", result.Outcome, OutcomeStopped)
	}
	if result.PID != 1001 {
		t.Errorf("stopped PID = %d, want 1001", result.PID)
	}
	if !launcher.handles[0].terminated.Load() {
		t.Error("expected handle to be terminated")
	}
	if len(sweeper.patterns) != 1 || sweeper.patterns[0] != "mediamtx" {
		t.Errorf("sweep patterns = %v", sweeper.patterns)
	}
	if got := sup.Status().State; got != StateIdle {
		t.Fatalf("state after stop = %v, want %v", got, StateIdle)
	}

	if _, err := sup.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second Stop error = %v, want ErrNotRunning", err)
	}
}

func TestSupervisorStopWhileIdle(t *testing.T) {
	launcher := &fakeLauncher{}
	sweeper := &fakeSweeper{}
	sup := newTestSupervisor(launcher, sweeper)

	for i := 0; i < 3; i++ {
		if _, err := sup.Stop(); !errors.Is(err, ErrNotRunning) {
			t.Fatalf("Stop error = %v, want ErrNotRunning", err)
		}
		if got := sup.Status().State; got != StateIdle {
			t.Fatalf("state = %v, want %v", got, StateIdle)
		}
	}
	if len(sweeper.patterns) != 0 {
		t.Errorf("sweeper should not run when idle, ran %d times", len(sweeper.patterns))
	}
}

func TestSupervisorSpawnFailure(t *testing.T) {
	launcher := &fakeLauncher{spawnErr: errors.New("no such file or directory")}
	sup := newTestSupervisor(launcher, nil)

	_, err := sup.Start("/nonexistent/mediamtx", nil)
	if !errors.Is(err, ErrSpawnFailed) {
		t.Fatalf("Start error = %v, want ErrSpawnFailed", err)
	}
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected *SpawnError, got %T", err)
	}
	if spawnErr.Command != "/nonexistent/mediamtx" {
		t.Errorf("SpawnError.Command = %q", spawnErr.Command)
	}
	if got := sup.Status().State; got != StateIdle {
		t.Fatalf("state after failed spawn = %v, want %v", got, StateIdle)
	}

	// The supervisor keeps accepting calls after a failure.
	launcher.spawnErr = nil
	if _, err := sup.Start("/usr/local/bin/mediamtx", nil); err != nil {
		t.Fatalf("Start after failure: %v", err)
	}
	if got := sup.Status().State; got != StateRunning {
		t.Errorf("state = %v, want %v", got, StateRunning)
	}
}

func TestSupervisorCleanupWarning(t *testing.T) {
	launcher := &fakeLauncher{}
	sweeper := &fakeSweeper{err: &CleanupError{Pattern: "mediamtx", ExitCode: 2, Output: "pgrep: bad pattern"}}
	sup := newTestSupervisor(launcher, sweeper)

	if _, err := sup.Start("/usr/local/bin/mediamtx", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	result, err := sup.Stop()
	if err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if result.Outcome != OutcomeStoppedWithCleanupWarning {
		t.Errorf("Outcome = %v, want %v", result.Outcome, OutcomeStoppedWithCleanupWarning)
	}
	if !errors.Is(result.CleanupErr, ErrCleanupFailed) {
		t.Errorf("CleanupErr = %v, want ErrCleanupFailed", result.CleanupErr)
	}
	if got := sup.Status().State; got != StateIdle {
		t.Fatalf("state = %v, want %v", got, StateIdle)
	}
}

func TestSupervisorStopFailureDiscardsHandle(t *testing.T) {
	launcher := &fakeLauncher{terminateErr: errors.New("operation not permitted")}
	sweeper := &fakeSweeper{}
	sup := newTestSupervisor(launcher, sweeper)

	if _, err := sup.Start("/usr/local/bin/mediamtx", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	_, err := sup.Stop()
	if !errors.Is(err, ErrStopFailed) {
		t.Fatalf("Stop error = %v, want ErrStopFailed", err)
	}
	var stopErr *StopError
	if !errors.As(err, &stopErr) || stopErr.PID != 1001 {
		t.Fatalf("expected *StopError for pid 1001, got %v", err)
	}
	if len(sweeper.patterns) != 0 {
		t.Error("sweep should not run when termination fails")
	}
	if got := sup.Status().State; got != StateIdle {
		t.Fatalf("state after failed stop = %v, want %v", got, StateIdle)
	}
	if _, err := sup.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop after failed stop = %v, want ErrNotRunning", err)
	}

	launcher.terminateErr = nil
	if _, err := sup.Start("/usr/local/bin/mediamtx", nil); err != nil {
		t.Fatalf("Start after failed stop: %v", err)
	}
}

func TestSupervisorNoSweepWithoutPattern(t *testing.T) {
	launcher := &fakeLauncher{}
	sweeper := &fakeSweeper{err: errors.New("should not be called")}
	sup := NewSupervisor(&SupervisorOptions{
		Launcher: launcher,
		Sweeper:  sweeper,
		Logger:   supervisorTestLogger(),
	})

	if _, err := sup.Start("mediamtx", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	result, err := sup.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if result.Outcome != OutcomeStopped {
		t.Errorf("Outcome = %v, want %v", result.Outcome, OutcomeStopped)
	}
	if len(sweeper.patterns) != 0 {
		t.Errorf("sweeper ran with empty pattern")
	}
}

func TestSupervisorConcurrentStart(t *testing.T) {
	launcher := &fakeLauncher{delay: 5 * time.Millisecond}
	sup := newTestSupervisor(launcher, &fakeSweeper{})

	const callers = 20
	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int32
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := sup.Start("mediamtx", nil)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrAlreadyRunning):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("succeeded = %d, want 1", succeeded.Load())
	}
	if rejected.Load() != callers-1 {
		t.Errorf("rejected = %d, want %d", rejected.Load(), callers-1)
	}
	if launcher.spawnCount() != 1 {
		t.Errorf("spawn count = %d, want 1", launcher.spawnCount())
	}
}

func TestSupervisorStartSucceedsOnlyFromIdle(t *testing.T) {
	// Random-ish sequence of operations checked against a model.
	ops := []string{"start", "start", "stop", "stop", "start", "stop", "start", "start", "stop", "start"}
	sup := newTestSupervisor(&fakeLauncher{}, &fakeSweeper{})
	running := false

	for i, op := range ops {
		switch op {
		case "start":
			_, err := sup.Start("mediamtx", nil)
			if running && !errors.Is(err, ErrAlreadyRunning) {
				t.Fatalf("op %d: start while running = %v", i, err)
			}
			if !running && err != nil {
				t.Fatalf("op %d: start while idle = %v", i, err)
			}
			running = true
		case "stop":
			_, err := sup.Stop()
			if !running && !errors.Is(err, ErrNotRunning) {
				t.Fatalf("op %d: stop while idle = %v", i, err)
			}
			if running && err != nil {
				t.Fatalf("op %d: stop while running = %v", i, err)
			}
			running = false
		}
		if sup.IsRunning() != running {
			t.Fatalf("op %d: IsRunning = %v, want %v", i, sup.IsRunning(), running)
		}
	}
}

func TestSupervisorStateChangeCallback(t *testing.T) {
	type transition struct {
		from, to State
		pid      int
	}
	var got []transition

	sup := NewSupervisor(&SupervisorOptions{
		Launcher: &fakeLauncher{},
		Logger:   supervisorTestLogger(),
		OnStateChange: func(oldState, newState State, info Info) {
			got = append(got, transition{oldState, newState, info.PID})
		},
	})

	if _, err := sup.Start("mediamtx", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_, _ = sup.Start("mediamtx", nil)
	if _, err := sup.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	_, _ = sup.Stop()

	want := []transition{
		{StateIdle, StateRunning, 1001},
		{StateRunning, StateIdle, 1001},
	}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewSupervisorRequiresLauncher(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic without Launcher")
		}
	}()
	NewSupervisor(&SupervisorOptions{})
}

func TestSupervisorStateChangesArriveInOrder(t *testing.T) {
	var (
		mu     sync.Mutex
		states []State
	)
	sup := NewSupervisor(&SupervisorOptions{
		Launcher: &fakeLauncher{},
		Logger:   supervisorTestLogger(),
		OnStateChange: func(_, newState State, _ Info) {
			mu.Lock()
			states = append(states, newState)
			mu.Unlock()
		},
	})

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if i%2 == 0 {
					_, _ = sup.Start("mediamtx", nil)
				} else {
					_, _ = sup.Stop()
				}
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	want := StateRunning
	for i, state := range states {
		if state != want {
			t.Fatalf("transition %d = %v, want %v (callbacks out of order)", i, state, want)
		}
		if want == StateRunning {
			want = StateIdle
		} else {
			want = StateRunning
		}
	}

	last := StateIdle
	if len(states) > 0 {
		last = states[len(states)-1]
	}
	if status := sup.Status().State; status != last {
		t.Errorf("status = %v, last observed state = %v", status, last)
	}
}
