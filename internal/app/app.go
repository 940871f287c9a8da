// Package app wires the process together: config, logger, tracing, the
// GCP conversion engine, the orchestrator, the janitor and the HTTP server.
package app

import (
	"context"
	"fmt"

	"github.com/dmorozov/docling-orchestrator/internal/archive"
	"github.com/dmorozov/docling-orchestrator/internal/config"
	"github.com/dmorozov/docling-orchestrator/internal/convert/gcp"
	httplayer "github.com/dmorozov/docling-orchestrator/internal/http"
	httpH "github.com/dmorozov/docling-orchestrator/internal/http/handlers"
	"github.com/dmorozov/docling-orchestrator/internal/janitor"
	"github.com/dmorozov/docling-orchestrator/internal/orchestrator"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
	"github.com/dmorozov/docling-orchestrator/internal/tracing"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	Log    *logger.Logger
	Cfg    config.Config
	Server *httplayer.Server

	orch           *orchestrator.Orchestrator
	engine         *gcp.Engine
	archive        *archive.Mirror
	tracerShutdown func(context.Context) error
}

// New constructs every component but starts nothing.
func New(args []string) (*App, error) {
	bootLog, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("app: init bootstrap logger: %w", err)
	}

	cfg, err := config.Load(args, bootLog)
	if err != nil {
		return nil, fmt.Errorf("app: loading config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("app: init logger: %w", err)
	}

	if err := janitor.EnsureTempDir(cfg.TempDir); err != nil {
		return nil, fmt.Errorf("app: preparing temp dir: %w", err)
	}

	ctx := context.Background()
	tracerShutdown, err := tracing.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("app: setting up tracing: %w", err)
	}

	engine, err := gcp.NewEngine(ctx, gcp.Config{
		ProjectID:            cfg.GCPProjectID,
		Location:             cfg.GCPLocation,
		ProcessorID:          cfg.GCPProcessorID,
		ProcessorVersion:     cfg.GCPProcessorVersion,
		StagingBucket:        cfg.GCPStagingBucket,
		InlineSizeLimitBytes: 0,
	}, log)
	if err != nil {
		_ = tracerShutdown(ctx)
		return nil, fmt.Errorf("app: dialing conversion engine: %w", err)
	}

	archiveMirror, err := archive.Open(cfg.ArchiveDB, log)
	if err != nil {
		_ = tracerShutdown(ctx)
		_ = engine.Close()
		return nil, fmt.Errorf("app: opening archive mirror: %w", err)
	}

	orch := orchestrator.New(engine, log, orchestrator.Config{
		MaxConcurrentJobs:     cfg.MaxConcurrentJobs,
		DefaultTier:           cfg.ProcessingTier,
		TimeoutBaseSeconds:    cfg.TimeoutBaseSeconds,
		TimeoutPerPageSeconds: cfg.TimeoutPerPage,
	}).WithArchive(archiveMirror)

	healthHandler := httpH.NewHealthHandler(orch, string(cfg.ProcessingTier))
	jobHandler := httpH.NewJobHandler(orch)

	server := httplayer.NewServer(httplayer.RouterConfig{
		HealthHandler: healthHandler,
		JobHandler:    jobHandler,
		AuthToken:     cfg.AuthToken,
		AuthMode:      cfg.AuthMode,
		Log:           log,
	}, fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))

	return &App{
		Log:            log,
		Cfg:            cfg,
		Server:         server,
		orch:           orch,
		engine:         engine,
		archive:        archiveMirror,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Start runs startup-time housekeeping (orphan cleanup) and launches the
// worker pool. It does not block.
func (a *App) Start(ctx context.Context) error {
	a.Log.Info("service_starting", "host", a.Cfg.Host, "port", a.Cfg.Port)

	janitor.CleanOrphans(a.Cfg.TempDir, janitor.MaxAge, a.Log)

	if err := a.orch.Start(ctx); err != nil {
		return fmt.Errorf("app: starting orchestrator: %w", err)
	}

	a.Log.Info("service_started")
	return nil
}

// Stop drains the HTTP server, stops the worker pool, flushes tracing, and
// closes the conversion engine's clients, in that order.
func (a *App) Stop(ctx context.Context) error {
	a.Log.Info("service_stopping")

	if err := a.Server.Shutdown(ctx); err != nil {
		a.Log.Warn("http_shutdown_error", "error", err.Error())
	}

	if err := a.orch.Stop(ctx); err != nil {
		a.Log.Warn("orchestrator_stop_error", "error", err.Error())
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.Log.Warn("tracer_shutdown_error", "error", err.Error())
		}
	}

	if err := a.engine.Close(); err != nil {
		a.Log.Warn("engine_close_error", "error", err.Error())
	}

	if err := a.archive.Close(); err != nil {
		a.Log.Warn("archive_close_error", "error", err.Error())
	}

	a.Log.Info("service_stopped")
	a.Log.Sync()
	return nil
}
