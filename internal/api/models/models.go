package models

import (
	"time"

	"github.com/smazurov/doorbell/internal/ffmpeg"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2025-01-27 10:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// MediaMTX process models
type StartData struct {
	Status    string    `json:"status" example:"started" doc:"Operation result"`
	Message   string    `json:"message" example:"MediaMTX started with PID 4242" doc:"Status message"`
	PID       int       `json:"pid" example:"4242" doc:"Process ID"`
	StartedAt time.Time `json:"started_at" doc:"When the process was spawned"`
}

type StartResponse struct {
	Body StartData
}

type StopData struct {
	Status  string `json:"status" example:"stopped" enum:"stopped,stopped_with_cleanup_warning" doc:"Operation result"`
	Message string `json:"message" example:"MediaMTX stopped" doc:"Status message"`
	PID     int    `json:"pid" example:"4242" doc:"Process ID of the stopped process"`
	Warning string `json:"warning,omitempty" doc:"Cleanup sweep failure, set for stopped_with_cleanup_warning"`
}

type StopResponse struct {
	Body StopData
}

type StreamData struct {
	Path   string   `json:"path" example:"cam" doc:"MediaMTX path name"`
	Ready  bool     `json:"ready" example:"true" doc:"Whether the path has an active source"`
	Tracks []string `json:"tracks,omitempty" example:"[\"H264\"]" doc:"Published tracks"`
}

type StatusData struct {
	State     string      `json:"state" example:"running" enum:"idle,running" doc:"Supervisor state"`
	PID       int         `json:"pid,omitempty" example:"4242" doc:"Process ID when running"`
	Command   string      `json:"command,omitempty" example:"/usr/local/bin/mediamtx" doc:"Executable when running"`
	Args      []string    `json:"args,omitempty" doc:"Arguments when running"`
	StartedAt *time.Time  `json:"started_at,omitempty" doc:"Spawn time when running"`
	Uptime    string      `json:"uptime,omitempty" example:"1h2m3s" doc:"Time since spawn"`
	Exited    bool        `json:"exited,omitempty" doc:"The process exited on its own and has not been stopped yet"`
	Stream    *StreamData `json:"stream,omitempty" doc:"Camera path state reported by the MediaMTX API"`
}

type StatusResponse struct {
	Body StatusData
}

// Screenshot models
type ScreenshotData struct {
	Status    string    `json:"status" example:"success" doc:"Capture status"`
	Message   string    `json:"message" example:"Screenshot uploaded" doc:"Status message"`
	URL       string    `json:"url" example:"https://smart-doorbell-bucket.s3.us-east-1.amazonaws.com/screenshots/2025-01-27_10-30-00.jpg" doc:"Object URL"`
	Key       string    `json:"key" example:"screenshots/2025-01-27_10-30-00.jpg" doc:"Object key"`
	LocalPath string    `json:"local_path" example:"/tmp/screenshot_2025-01-27_10-30-00.jpg" doc:"Local copy"`
	Size      int64     `json:"size" example:"183422" doc:"Image size in bytes"`
	Timestamp time.Time `json:"timestamp" doc:"Capture time"`
}

type ScreenshotResponse struct {
	Body ScreenshotData
}

// Capture options models
type OptionsData struct {
	Options []ffmpeg.Option `json:"options" doc:"Supported ffmpeg input options"`
}

type OptionsResponse struct {
	Body OptionsData
}

// Log models
type LogEntryData struct {
	Timestamp  time.Time      `json:"timestamp" doc:"Entry time"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"supervisor" doc:"Logger module"`
	Message    string         `json:"message" example:"Process started" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogsInput struct {
	Level  string `query:"level" enum:"debug,info,warn,error" doc:"Only return entries at this level"`
	Module string `query:"module" doc:"Only return entries from this module"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Maximum entries returned (newest last)"`
}

type LogsData struct {
	Entries []LogEntryData `json:"entries" doc:"Recent log entries"`
	Count   int            `json:"count" example:"10" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
