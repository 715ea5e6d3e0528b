package led

import "github.com/smazurov/doorbell/internal/logging"

// noop implements Controller for systems without LED support
type noop struct {
	logger logging.Logger
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger}
}

// Set logs the request but performs no actual LED control
func (n *noop) Set(name string, pattern Pattern) error {
	if n.logger != nil {
		n.logger.Debug("LED control not available (no-op)", "led", name, "pattern", pattern)
	}
	return nil
}

// Available returns an empty list since no LEDs are available
func (n *noop) Available() []string {
	return []string{}
}
