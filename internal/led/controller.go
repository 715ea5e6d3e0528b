// Package led drives the board status LED from doorbell events.
package led

// Pattern is an LED display mode.
type Pattern string

// Supported patterns.
const (
	PatternOff   Pattern = "off"
	PatternSolid Pattern = "solid"
	PatternBlink Pattern = "blink"
)

// StatusLED is the logical name of the LED the manager drives.
const StatusLED = "status"

// Controller abstracts LED hardware control across different SBC boards.
type Controller interface {
	// Set applies pattern to the named LED.
	Set(name string, pattern Pattern) error

	// Available returns the LED names supported by this controller.
	Available() []string
}
