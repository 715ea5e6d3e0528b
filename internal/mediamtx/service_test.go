package mediamtx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/doorbell/internal/events"
	"github.com/smazurov/doorbell/internal/process"
)

type fakeSupervisor struct {
	startErr   error
	stopErr    error
	stopResult process.StopResult
	running    bool
	command    string
	args       []string
}

func (f *fakeSupervisor) Start(command string, args []string) (process.Info, error) {
	f.command = command
	f.args = args
	if f.startErr != nil {
		return process.Info{}, f.startErr
	}
	f.running = true
	return process.Info{State: process.StateRunning, PID: 4242, Command: command, Args: args, StartedAt: time.Now()}, nil
}

func (f *fakeSupervisor) Stop() (process.StopResult, error) {
	if !f.running {
		return process.StopResult{}, process.ErrNotRunning
	}
	f.running = false
	if f.stopErr != nil {
		return process.StopResult{}, f.stopErr
	}
	return f.stopResult, nil
}

func (f *fakeSupervisor) Status() process.Info {
	if f.running {
		return process.Info{State: process.StateRunning, PID: 4242}
	}
	return process.Info{State: process.StateIdle}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func TestServiceDefaultCommand(t *testing.T) {
	sup := &fakeSupervisor{}
	svc := NewService(ServiceOptions{Supervisor: sup})

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sup.command != DefaultBinary || !reflect.DeepEqual(sup.args, []string{DefaultConfigFile}) {
		t.Errorf("unexpected command %q %v", sup.command, sup.args)
	}
}

func TestServiceCustomCommand(t *testing.T) {
	sup := &fakeSupervisor{}
	svc := NewService(ServiceOptions{Supervisor: sup, Binary: "/opt/mediamtx", Args: nil})

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sup.command != "/opt/mediamtx" || len(sup.args) != 0 {
		t.Errorf("unexpected command %q %v", sup.command, sup.args)
	}
}

func TestServicePublishesLifecycleEvents(t *testing.T) {
	sup := &fakeSupervisor{stopResult: process.StopResult{Outcome: process.OutcomeStopped, PID: 4242}}
	pub := &recordingPublisher{}
	svc := NewService(ServiceOptions{Supervisor: sup, Publisher: pub})

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	started, ok := pub.events[0].(events.ProcessStartedEvent)
	if !ok || started.PID != 4242 {
		t.Errorf("unexpected start event %#v", pub.events[0])
	}
	stopped, ok := pub.events[1].(events.ProcessStoppedEvent)
	if !ok || stopped.Outcome != "stopped" || stopped.PID != 4242 {
		t.Errorf("unexpected stop event %#v", pub.events[1])
	}
}

func TestServiceCleanupWarningEvent(t *testing.T) {
	sweepErr := &process.CleanupError{Pattern: "mediamtx", ExitCode: 1}
	sup := &fakeSupervisor{stopResult: process.StopResult{
		Outcome:    process.OutcomeStoppedWithCleanupWarning,
		PID:        4242,
		CleanupErr: sweepErr,
	}}
	pub := &recordingPublisher{}
	svc := NewService(ServiceOptions{Supervisor: sup, Publisher: pub})

	_, _ = svc.Start()
	result, err := svc.Stop()
	if err != nil {
		t.Fatalf("cleanup warning is not an error: %v", err)
	}
	if result.Outcome != process.OutcomeStoppedWithCleanupWarning {
		t.Errorf("unexpected outcome %q", result.Outcome)
	}

	stopped := pub.events[len(pub.events)-1].(events.ProcessStoppedEvent)
	if stopped.Outcome != "stopped_with_cleanup_warning" || stopped.Error == "" {
		t.Errorf("unexpected stop event %#v", stopped)
	}
}

func TestServiceStopFailureEvent(t *testing.T) {
	sup := &fakeSupervisor{stopErr: &process.StopError{PID: 4242, Err: errors.New("operation not permitted")}}
	pub := &recordingPublisher{}
	svc := NewService(ServiceOptions{Supervisor: sup, Publisher: pub})

	_, _ = svc.Start()
	_, err := svc.Stop()
	if !errors.Is(err, process.ErrStopFailed) {
		t.Fatalf("expected ErrStopFailed, got %v", err)
	}

	stopped := pub.events[len(pub.events)-1].(events.ProcessStoppedEvent)
	if stopped.Outcome != "stop_failed" || stopped.PID != 4242 {
		t.Errorf("unexpected stop event %#v", stopped)
	}
}

func TestServiceNoEventsOnRejectedOperations(t *testing.T) {
	sup := &fakeSupervisor{startErr: process.ErrAlreadyRunning}
	pub := &recordingPublisher{}
	svc := NewService(ServiceOptions{Supervisor: sup, Publisher: pub})

	if _, err := svc.Start(); !errors.Is(err, process.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if _, err := svc.Stop(); !errors.Is(err, process.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no events, got %d", len(pub.events))
	}
}

func TestServiceShutdown(t *testing.T) {
	sup := &fakeSupervisor{stopResult: process.StopResult{Outcome: process.OutcomeStopped}}
	svc := NewService(ServiceOptions{Supervisor: sup})

	svc.Shutdown()

	_, _ = svc.Start()
	svc.Shutdown()
	if sup.running {
		t.Error("Shutdown should stop a running process")
	}
}

func TestServiceStream(t *testing.T) {
	svc := NewService(ServiceOptions{Supervisor: &fakeSupervisor{}})
	if svc.Stream(context.Background()) != nil {
		t.Error("expected nil without a client")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v3/paths/get/cam" {
			_, _ = w.Write([]byte(`{"name":"cam","ready":true}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	svc = NewService(ServiceOptions{Supervisor: &fakeSupervisor{}, Client: NewClient(srv.URL)})
	info := svc.Stream(context.Background())
	if info == nil || !info.Ready {
		t.Errorf("expected ready stream, got %+v", info)
	}

	svc = NewService(ServiceOptions{Supervisor: &fakeSupervisor{}, Client: NewClient(srv.URL), PathName: "garage"})
	info = svc.Stream(context.Background())
	if info == nil || info.Ready || info.Name != "garage" {
		t.Errorf("expected not-ready placeholder, got %+v", info)
	}
}
