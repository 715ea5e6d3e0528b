package led

import (
	"os"
	"strings"

	"github.com/smazurov/doorbell/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boardLEDs maps a device tree model substring to the LED used as the status LED.
var boardLEDs = []struct {
	model string
	led   string
}{
	{"Raspberry Pi", "ACT"},
	{"NanoPC-T6", "sys_led"},
	{"Orange Pi", "green_led"},
}

// New returns a controller for the detected board.
// Falls back to a no-op controller if the board has no known LED.
func New(logger logging.Logger) Controller {
	return newForModel(detectBoard(deviceTreeModelPath), sysfsLEDPath, logger)
}

func newForModel(model, root string, logger logging.Logger) Controller {
	for _, board := range boardLEDs {
		if strings.Contains(model, board.model) {
			if logger != nil {
				logger.Info("Using sysfs status LED", "board_model", model, "led", board.led)
			}
			return newSysfs(root, map[string]string{StatusLED: board.led})
		}
	}

	if logger != nil {
		logger.Info("No LED support detected, using no-op controller", "board_model", model)
	}
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	// Device tree strings are NUL-terminated
	return strings.TrimRight(string(data), "\x00")
}
