package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/doorbell/cmd"
	"github.com/smazurov/doorbell/internal/api"
	"github.com/smazurov/doorbell/internal/capture"
	"github.com/smazurov/doorbell/internal/config"
	"github.com/smazurov/doorbell/internal/events"
	"github.com/smazurov/doorbell/internal/ffmpeg"
	"github.com/smazurov/doorbell/internal/led"
	"github.com/smazurov/doorbell/internal/logging"
	"github.com/smazurov/doorbell/internal/mediamtx"
	"github.com/smazurov/doorbell/internal/metrics"
	"github.com/smazurov/doorbell/internal/process"
	"github.com/smazurov/doorbell/internal/snapshot"
	"github.com/smazurov/doorbell/internal/storage"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port             string `help:"Address to listen on" short:"p" default:":8080" toml:"server.port" env:"SERVER_PORT"`
	ServerCorsOrigin string `help:"Access-Control-Allow-Origin value" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// MediaMTX settings
	MediamtxBinary         string `help:"MediaMTX executable" default:"/usr/local/bin/mediamtx" toml:"mediamtx.binary" env:"MEDIAMTX_BINARY"`
	MediamtxConfigFile     string `help:"MediaMTX config file passed as its argument" default:"/etc/mediamtx/mediamtx.yml" toml:"mediamtx.config_file" env:"MEDIAMTX_CONFIG_FILE"`
	MediamtxCommand        string `help:"Full MediaMTX command line, overrides binary and config file" toml:"mediamtx.command" env:"MEDIAMTX_COMMAND"`
	MediamtxCleanupPattern string `help:"pgrep -f pattern of stray instances signaled after stop (empty disables)" default:"mediamtx" toml:"mediamtx.cleanup_pattern" env:"MEDIAMTX_CLEANUP_PATTERN"`
	MediamtxStatusEndpoint string `help:"MediaMTX control API base URL for stream status (empty disables)" toml:"mediamtx.api_url" env:"MEDIAMTX_API_URL"`
	MediamtxPath           string `help:"MediaMTX path carrying the camera" default:"cam" toml:"mediamtx.path" env:"MEDIAMTX_PATH"`

	// Capture settings
	CaptureInput     string `help:"RTSP URL to grab frames from" default:"rtsp://localhost:8554/cam" toml:"capture.rtsp_url" env:"CAPTURE_RTSP_URL"`
	CaptureOutputDir string `help:"Directory for local screenshot files" default:"/tmp" toml:"capture.output_dir" env:"CAPTURE_OUTPUT_DIR"`
	CaptureFfmpeg    string `help:"ffmpeg executable" default:"ffmpeg" toml:"capture.ffmpeg_path" env:"CAPTURE_FFMPEG_PATH"`
	CaptureTimeout   string `help:"Frame grab timeout" default:"10s" toml:"capture.timeout" env:"CAPTURE_TIMEOUT"`
	CaptureQuality   int    `help:"JPEG quality passed to -q:v (2-31, lower is better)" default:"2" toml:"capture.quality" env:"CAPTURE_QUALITY"`
	CaptureOptions   string `help:"Comma-separated ffmpeg input options (see /screenshot/options)" default:"rtsp_tcp" toml:"capture.options" env:"CAPTURE_OPTIONS"`

	// Storage settings
	StorageBucket        string `help:"S3 bucket for screenshots" default:"smart-doorbell-bucket" toml:"storage.bucket" env:"STORAGE_BUCKET"`
	StorageRegion        string `help:"S3 region (empty uses the AWS default chain, then us-east-1)" toml:"storage.region" env:"STORAGE_REGION"`
	StoragePrefix        string `help:"Object key prefix" default:"screenshots" toml:"storage.prefix" env:"STORAGE_PREFIX"`
	StorageEndpoint      string `help:"Custom S3-compatible endpoint" toml:"storage.endpoint" env:"STORAGE_ENDPOINT"`
	StoragePathStyle     bool   `help:"Use path-style bucket addressing" default:"false" toml:"storage.path_style" env:"STORAGE_PATH_STYLE"`
	StoragePublicBaseUrl string `help:"Base URL returned for uploaded objects" toml:"storage.public_base_url" env:"STORAGE_PUBLIC_BASE_URL"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Feature flags
	FeaturesStatusLed bool `help:"Mirror MediaMTX state on the board status LED" default:"false" toml:"features.status_led" env:"FEATURES_STATUS_LED"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingCapture    string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingStorage    string `help:"Storage logging level" default:"info" toml:"logging.storage" env:"LOGGING_STORAGE"`
	LoggingApi        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"supervisor": o.LoggingSupervisor,
			"capture":    o.LoggingCapture,
			"snapshot":   o.LoggingCapture,
			"storage":    o.LoggingStorage,
			"api":        o.LoggingApi,
			"http":       o.LoggingApi,
		},
	}
}

// mediamtxCommand resolves the command line used to start MediaMTX.
func (o *Options) mediamtxCommand() (string, []string, error) {
	if strings.TrimSpace(o.MediamtxCommand) != "" {
		return process.ParseCommand(o.MediamtxCommand)
	}
	var args []string
	if o.MediamtxConfigFile != "" {
		args = []string{o.MediamtxConfigFile}
	}
	return o.MediamtxBinary, args, nil
}

// captureTimeout parses capture.timeout, falling back to the default with a warning.
func captureTimeout(value string, logger logging.Logger) time.Duration {
	timeout, err := time.ParseDuration(value)
	if err != nil || timeout <= 0 {
		logger.Warn("Invalid capture timeout, using default",
			"value", value, "default", capture.DefaultTimeout, "error", err)
		return capture.DefaultTimeout
	}
	return timeout
}

func newSnapshotService(ctx context.Context, opts *Options, bus *events.Bus) (*snapshot.Service, error) {
	timeout := captureTimeout(opts.CaptureTimeout, logging.GetLogger("capture"))

	ffmpegOptions, err := ffmpeg.ParseOptions(strings.Split(opts.CaptureOptions, ","))
	if err != nil {
		return nil, err
	}

	capturer := capture.New(capture.Config{
		FFmpegPath: opts.CaptureFfmpeg,
		Timeout:    timeout,
		Quality:    opts.CaptureQuality,
		Options:    ffmpegOptions,
		Logger:     logging.GetLogger("capture"),
	})

	uploader, err := storage.NewS3Uploader(ctx, storage.Config{
		Bucket:        opts.StorageBucket,
		Region:        opts.StorageRegion,
		Prefix:        opts.StoragePrefix,
		Endpoint:      opts.StorageEndpoint,
		PathStyle:     opts.StoragePathStyle,
		PublicBaseURL: opts.StoragePublicBaseUrl,
	})
	if err != nil {
		return nil, err
	}

	return snapshot.New(snapshot.Options{
		Capturer:  capturer,
		Uploader:  uploader,
		InputURL:  opts.CaptureInput,
		OutputDir: opts.CaptureOutputDir,
		Prefix:    opts.StoragePrefix,
		Publisher: bus,
	}), nil
}

func main() {
	var cli humacli.CLI
	var loaded *Options
	var eventBus *events.Bus

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}
		loaded = opts

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		eventBus = events.New()

		binary, args, err := opts.mediamtxCommand()
		if err != nil {
			logger.Error("Invalid MediaMTX command", "command", opts.MediamtxCommand, "error", err)
			os.Exit(1)
		}

		supervisor := process.NewSupervisor(&process.SupervisorOptions{
			Launcher:       process.NewExecLauncher(logging.GetLogger("supervisor")),
			Sweeper:        process.NewPgrepSweeper(logging.GetLogger("supervisor")),
			CleanupPattern: opts.MediamtxCleanupPattern,
			Logger:         logging.GetLogger("supervisor"),
			OnStateChange: func(_, newState process.State, _ process.Info) {
				metrics.SetSupervisorRunning(newState == process.StateRunning)
			},
		})

		var mediamtxClient *mediamtx.Client
		if opts.MediamtxStatusEndpoint != "" {
			mediamtxClient = mediamtx.NewClient(strings.TrimRight(opts.MediamtxStatusEndpoint, "/"))
		}

		mediamtxService := mediamtx.NewService(mediamtx.ServiceOptions{
			Supervisor: supervisor,
			Binary:     binary,
			Args:       args,
			Publisher:  eventBus,
			Client:     mediamtxClient,
			PathName:   opts.MediamtxPath,
		})

		var server *api.Server
		var watcher *config.Watcher[logging.Config]
		var ledManager *led.Manager

		hooks.OnStart(func() {
			// Log entries reach SSE clients only while the server runs
			logging.SetLogCallback(func(entry logging.LogEntry) {
				eventBus.Publish(events.LogEntryEvent{
					Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
					Level:      entry.Level,
					Module:     entry.Module,
					Message:    entry.Message,
					Attributes: entry.Attributes,
				})
			})

			snapshotService, err := newSnapshotService(context.Background(), opts, eventBus)
			if err != nil {
				logger.Error("Failed to set up screenshot capture", "error", err)
				os.Exit(1)
			}

			apiOpts := &api.Options{
				MediaMTX:   mediamtxService,
				Snapshot:   snapshotService,
				EventBus:   eventBus,
				CORSOrigin: opts.ServerCorsOrigin,
			}
			if opts.MetricsEnabled {
				apiOpts.MetricsHandler = metrics.Handler()
			}
			server = api.NewServer(apiOpts)

			if _, statErr := os.Stat(opts.Config); statErr == nil {
				watcher = config.NewConfigWatcher(opts.Config, config.ReadLoggingConfig, logging.GetLogger("config"), 0)
				watcher.OnReload(func(cfg logging.Config) {
					logging.SetLevels(cfg)
					logger.Info("Logging levels reloaded", "level", cfg.Level)
				})
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Warn("Failed to watch config file", "path", opts.Config, "error", watchErr)
				}
			}

			if opts.FeaturesStatusLed {
				ledLogger := logging.GetLogger("led")
				ledManager = led.NewManager(led.New(ledLogger), eventBus, supervisor.IsRunning, ledLogger)
				ledManager.Start()
			}

			command, commandArgs := mediamtxService.Command()
			logger.Info("Doorbell control node ready",
				"mediamtx", command, "args", commandArgs,
				"capture", opts.CaptureInput, "bucket", opts.StorageBucket)

			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")

			if server != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if stopErr := server.Stop(ctx); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}

			// Stop MediaMTX after the API stops accepting /start requests
			mediamtxService.Shutdown()

			if ledManager != nil {
				ledManager.Stop()
			}

			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateScreenshotCmd(func() (cmd.Snapshotter, error) {
		if loaded == nil {
			return nil, errors.New("configuration not loaded")
		}
		return newSnapshotService(context.Background(), loaded, eventBus)
	}))

	cli.Root().AddCommand(cmd.CreateMediamtxConfigCmd(func() string {
		if loaded == nil {
			return mediamtx.DefaultConfigFile
		}
		return loaded.MediamtxConfigFile
	}))

	cli.Run()
}
