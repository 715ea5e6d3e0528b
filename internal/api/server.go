package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/doorbell/internal/api/models"
	"github.com/smazurov/doorbell/internal/events"
	"github.com/smazurov/doorbell/internal/logging"
	"github.com/smazurov/doorbell/internal/mediamtx"
	"github.com/smazurov/doorbell/internal/process"
	"github.com/smazurov/doorbell/internal/snapshot"
	"github.com/smazurov/doorbell/internal/version"
)

// MediaMTXService controls the supervised MediaMTX process.
type MediaMTXService interface {
	Start() (process.Info, error)
	Stop() (process.StopResult, error)
	Status() process.Info
	Stream(ctx context.Context) *mediamtx.PathInfo
}

// SnapshotService captures and uploads a camera frame.
type SnapshotService interface {
	Capture(ctx context.Context) (snapshot.Result, error)
}

// Options configures the API server.
type Options struct {
	MediaMTX       MediaMTXService
	Snapshot       SnapshotService
	EventBus       *events.Bus
	MetricsHandler http.Handler // optional Prometheus handler served at /metrics
	CORSOrigin     string       // defaults to "*"
}

// Server is the doorbell control API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	mediamtx   MediaMTXService
	snapshot   SnapshotService
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API server with Huma v2 on Go's native routing.
func NewServer(opts *Options) *Server {
	if opts == nil || opts.MediaMTX == nil || opts.Snapshot == nil {
		panic("api: MediaMTX and Snapshot services are required")
	}

	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	if opts.CORSOrigin != "" {
		corsConfig.AllowOrigin = opts.CORSOrigin
	}
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("Doorbell API", version.String())
	config.Info.Description = "Start and stop MediaMTX and capture doorbell camera screenshots"
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	eventBus := opts.EventBus
	if eventBus == nil {
		eventBus = events.New()
	}

	server := &Server{
		api:      api,
		mux:      mux,
		mediamtx: opts.MediaMTX,
		snapshot: opts.Snapshot,
		eventBus: eventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	server.registerRoutes()

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves the API on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting doorbell API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts down the server, waiting up to ctx for in-flight requests.
// SSE streams are closed when ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				GitCommit: versionInfo.GitCommit,
				BuildDate: versionInfo.BuildDate,
				BuildID:   versionInfo.BuildID,
				GoVersion: versionInfo.GoVersion,
				Compiler:  versionInfo.Compiler,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	s.registerMediaMTXRoutes()
	s.registerScreenshotRoutes()
	s.registerOptionsRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
}
