package events

// Event type constants for kelindar/event.
const (
	TypeProcessStarted uint32 = iota + 1
	TypeProcessStopped
	TypeScreenshotCaptured
	TypeScreenshotFailed
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProcessStartedEvent is published when the supervised process is spawned.
type ProcessStartedEvent struct {
	PID       int      `json:"pid" example:"4242" doc:"Process ID"`
	Command   string   `json:"command" example:"/usr/local/bin/mediamtx" doc:"Executable"`
	Args      []string `json:"args" doc:"Command arguments"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Start time"`
}

// Type returns the event type identifier for ProcessStartedEvent.
func (e ProcessStartedEvent) Type() uint32 { return TypeProcessStarted }

// ProcessStoppedEvent is published when the supervisor releases the process handle.
type ProcessStoppedEvent struct {
	PID       int    `json:"pid" example:"4242" doc:"Process ID"`
	Outcome   string `json:"outcome" example:"stopped" doc:"stopped, stopped_with_cleanup_warning or stop_failed"`
	Error     string `json:"error,omitempty" doc:"Termination or cleanup error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Stop time"`
}

// Type returns the event type identifier for ProcessStoppedEvent.
func (e ProcessStoppedEvent) Type() uint32 { return TypeProcessStopped }

// ScreenshotCapturedEvent is published after a frame was captured and uploaded.
type ScreenshotCapturedEvent struct {
	URL       string `json:"url" example:"https://smart-doorbell-bucket.s3.us-east-1.amazonaws.com/screenshots/2025-01-27_10-30-00.jpg" doc:"Object URL"`
	Key       string `json:"key" example:"screenshots/2025-01-27_10-30-00.jpg" doc:"Object key"`
	LocalPath string `json:"local_path" example:"/tmp/screenshot_2025-01-27_10-30-00.jpg" doc:"Local file"`
	Size      int64  `json:"size" example:"183422" doc:"Image size in bytes"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Capture time"`
}

// Type returns the event type identifier for ScreenshotCapturedEvent.
func (e ScreenshotCapturedEvent) Type() uint32 { return TypeScreenshotCaptured }

// ScreenshotFailedEvent is published when capture or upload fails.
type ScreenshotFailedEvent struct {
	Stage     string `json:"stage" example:"upload" doc:"capture or upload"`
	LocalPath string `json:"local_path,omitempty" doc:"Local file, set when the capture succeeded"`
	Error     string `json:"error" doc:"Failure description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Failure time"`
}

// Type returns the event type identifier for ScreenshotFailedEvent.
func (e ScreenshotFailedEvent) Type() uint32 { return TypeScreenshotFailed }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
