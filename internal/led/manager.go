package led

import (
	"sync"
	"time"

	"github.com/smazurov/doorbell/internal/events"
	"github.com/smazurov/doorbell/internal/logging"
)

// DefaultFlashDuration is how long the LED blinks after a screenshot.
const DefaultFlashDuration = 2 * time.Second

// Manager mirrors the MediaMTX state on the status LED:
// solid while running, off while idle, blinking briefly after a screenshot.
// Process events only trigger a refresh; the state itself is read from the
// supervisor, since events from concurrent start and stop calls may arrive
// out of order.
type Manager struct {
	controller    Controller
	eventBus      *events.Bus
	isRunning     func() bool
	logger        logging.Logger
	flashDuration time.Duration

	mu           sync.Mutex
	running      bool
	flashTimer   *time.Timer
	unsubscribes []func()
}

// NewManager creates a manager; call Start to subscribe.
// isRunning reports the current supervisor state.
func NewManager(controller Controller, eventBus *events.Bus, isRunning func() bool, logger logging.Logger) *Manager {
	return &Manager{
		controller:    controller,
		eventBus:      eventBus,
		isRunning:     isRunning,
		logger:        logger,
		flashDuration: DefaultFlashDuration,
	}
}

// Start subscribes to process and screenshot events and shows the current state.
func (m *Manager) Start() {
	m.refresh()

	m.unsubscribes = []func(){
		m.eventBus.Subscribe(func(events.ProcessStartedEvent) { m.refresh() }),
		m.eventBus.Subscribe(func(events.ProcessStoppedEvent) { m.refresh() }),
		m.eventBus.Subscribe(func(events.ScreenshotCapturedEvent) { m.flash() }),
	}
	m.logger.Info("LED manager started")
}

// Stop unsubscribes and turns the LED off.
func (m *Manager) Stop() {
	for _, unsub := range m.unsubscribes {
		unsub()
	}
	m.unsubscribes = nil

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flashTimer != nil {
		m.flashTimer.Stop()
		m.flashTimer = nil
	}
	m.apply(PatternOff)
	m.logger.Info("LED manager stopped")
}

func (m *Manager) refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = m.isRunning()
	if m.flashTimer == nil {
		m.apply(m.steadyPattern())
	}
}

func (m *Manager) flash() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.flashTimer != nil {
		m.flashTimer.Reset(m.flashDuration)
		return
	}
	m.apply(PatternBlink)
	m.flashTimer = time.AfterFunc(m.flashDuration, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.flashTimer = nil
		m.apply(m.steadyPattern())
	})
}

// steadyPattern must be called with mu held.
func (m *Manager) steadyPattern() Pattern {
	if m.running {
		return PatternSolid
	}
	return PatternOff
}

// apply must be called with mu held.
func (m *Manager) apply(pattern Pattern) {
	if err := m.controller.Set(StatusLED, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", pattern, "error", err)
		return
	}
	m.logger.Debug("Status LED updated", "pattern", pattern)
}
