// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are built on log/slog and routed automatically:
//   - to the systemd journal when journald is reachable
//   - to stdout when a terminal, pipe, or file is connected
//   - always to an in-memory ring buffer served by the /logs endpoint
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"supervisor": "debug",
//			"api":        "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("capture")
//	logger.Info("Screenshot saved", "path", path)
//
// Levels can be changed at runtime with SetLevels; loggers already handed out
// follow the change because each module owns a slog.LevelVar.
//
// # Viewing Logs
//
//	journalctl -t doorbell                    # All logs
//	journalctl -t doorbell -f                 # Follow live
//	journalctl -t doorbell MODULE=supervisor  # One module
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	supervisor = "debug"
//	capture = "info"
package logging
