package led

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/doorbell/internal/events"
)

type mockController struct {
	mu       sync.Mutex
	patterns []Pattern
}

func (m *mockController) Set(_ string, pattern Pattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	return nil
}

func (m *mockController) Available() []string { return []string{StatusLED} }

func (m *mockController) last() Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.patterns) == 0 {
		return ""
	}
	return m.patterns[len(m.patterns)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForPattern(t *testing.T, m *mockController, want Pattern) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.last() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("last pattern = %q, want %q", m.last(), want)
}

func TestManager_FollowsProcessState(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	var running atomic.Bool
	m := NewManager(ctrl, bus, running.Load, discardLogger())
	m.Start()
	defer m.Stop()

	if got := ctrl.last(); got != PatternOff {
		t.Fatalf("initial pattern = %q, want off", got)
	}

	running.Store(true)
	bus.Publish(events.ProcessStartedEvent{PID: 1})
	waitForPattern(t, ctrl, PatternSolid)

	running.Store(false)
	bus.Publish(events.ProcessStoppedEvent{PID: 1})
	waitForPattern(t, ctrl, PatternOff)
}

func TestManager_StartShowsCurrentState(t *testing.T) {
	ctrl := &mockController{}
	m := NewManager(ctrl, events.New(), func() bool { return true }, discardLogger())
	m.Start()
	defer m.Stop()

	if got := ctrl.last(); got != PatternSolid {
		t.Errorf("pattern after Start = %q, want solid", got)
	}
}

func TestManager_LateStopEventKeepsRunningState(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	var running atomic.Bool
	m := NewManager(ctrl, bus, running.Load, discardLogger())
	m.Start()
	defer m.Stop()

	// A stop event from an earlier stop arrives after a newer start.
	running.Store(true)
	bus.Publish(events.ProcessStartedEvent{PID: 2})
	bus.Publish(events.ProcessStoppedEvent{PID: 1})
	waitForPattern(t, ctrl, PatternSolid)

	time.Sleep(50 * time.Millisecond)
	if got := ctrl.last(); got != PatternSolid {
		t.Errorf("pattern = %q, want solid", got)
	}
}

func TestManager_FlashRestoresSteadyState(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	var running atomic.Bool
	m := NewManager(ctrl, bus, running.Load, discardLogger())
	m.flashDuration = 200 * time.Millisecond
	m.Start()
	defer m.Stop()

	running.Store(true)
	bus.Publish(events.ProcessStartedEvent{PID: 1})
	waitForPattern(t, ctrl, PatternSolid)

	bus.Publish(events.ScreenshotCapturedEvent{Key: "screenshots/a.jpg"})
	waitForPattern(t, ctrl, PatternBlink)
	waitForPattern(t, ctrl, PatternSolid)
}

func TestManager_StopTurnsOff(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	var running atomic.Bool
	m := NewManager(ctrl, bus, running.Load, discardLogger())
	m.Start()

	running.Store(true)
	bus.Publish(events.ProcessStartedEvent{PID: 1})
	waitForPattern(t, ctrl, PatternSolid)

	m.Stop()
	if got := ctrl.last(); got != PatternOff {
		t.Errorf("pattern after Stop = %q, want off", got)
	}
}

func TestSysfs_Set(t *testing.T) {
	root := t.TempDir()
	ledDir := filepath.Join(root, "ACT")
	if err := os.MkdirAll(ledDir, 0o755); err != nil {
		t.Fatal(err)
	}
	s := newSysfs(root, map[string]string{StatusLED: "ACT"})

	tests := []struct {
		pattern    Pattern
		trigger    string
		brightness string
	}{
		{PatternSolid, "none", "1"},
		{PatternBlink, "heartbeat", "1"},
		{PatternOff, "none", "0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			if err := s.Set(StatusLED, tt.pattern); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			trigger, _ := os.ReadFile(filepath.Join(ledDir, "trigger"))
			brightness, _ := os.ReadFile(filepath.Join(ledDir, "brightness"))
			if string(trigger) != tt.trigger || string(brightness) != tt.brightness {
				t.Errorf("trigger=%q brightness=%q, want %q %q", trigger, brightness, tt.trigger, tt.brightness)
			}
		})
	}
}

func TestSysfs_Errors(t *testing.T) {
	s := newSysfs(t.TempDir(), map[string]string{StatusLED: "ACT"})

	if err := s.Set("power", PatternSolid); err == nil {
		t.Error("expected error for unsupported LED")
	}
	if err := s.Set(StatusLED, PatternSolid); err == nil {
		t.Error("expected error for missing sysfs directory")
	}
	if got := s.Available(); !slices.Equal(got, []string{StatusLED}) {
		t.Errorf("Available() = %v", got)
	}
}

func TestNewForModel(t *testing.T) {
	tests := []struct {
		model string
		sysfs bool
	}{
		{"Raspberry Pi 4 Model B Rev 1.4", true},
		{"FriendlyElec NanoPC-T6", true},
		{"Orange Pi 5", true},
		{"unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			ctrl := newForModel(tt.model, t.TempDir(), discardLogger())
			_, isSysfs := ctrl.(*sysfs)
			if isSysfs != tt.sysfs {
				t.Errorf("sysfs controller = %v, want %v", isSysfs, tt.sysfs)
			}
		})
	}
}

func TestDetectBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model")
	if err := os.WriteFile(path, []byte("Raspberry Pi 5\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := detectBoard(path); got != "Raspberry Pi 5" {
		t.Errorf("detectBoard() = %q", got)
	}
	if got := detectBoard(filepath.Join(t.TempDir(), "missing")); got != "unknown" {
		t.Errorf("detectBoard(missing) = %q, want unknown", got)
	}
}
