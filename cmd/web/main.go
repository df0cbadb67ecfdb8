package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"resumeview/internal/apiclient"
	"resumeview/internal/app"
	"resumeview/internal/config"
	"resumeview/internal/database"
	"resumeview/internal/database/migration"
	handlers "resumeview/internal/http/handler"
	"resumeview/internal/http/middleware"
	"resumeview/internal/logger"
	"resumeview/internal/otel"
	"resumeview/internal/repository"
	"resumeview/internal/repository/postgres"
	"resumeview/internal/service"
	"resumeview/internal/storage"
)

// maxUploadBytes bounds the multipart body of POST /analyze.
const maxUploadBytes = 20 << 20

// @title Resume Viewer API
// @version 1.0
// @description JSON routes of the resume viewer web front end.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	apiMetrics, err := apiclient.NewMetrics(reg)
	if err != nil {
		return err
	}
	backend := apiclient.New(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSec)*time.Second, apiclient.WithMetrics(apiMetrics))

	// Optional submission journal
	var repo repository.SubmissionRepository
	if cfg.Database.Enabled() {
		db, err := openJournal(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = postgres.NewSubmissionPostgres(db)
	}

	// Optional upload archive
	var archive storage.Storage
	if cfg.MinIO.Enabled() {
		archive, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
	}

	svcMetrics, err := service.NewMetrics(reg)
	if err != nil {
		return err
	}
	submissions := service.NewSubmissionService(repo, archive, svcMetrics, log)

	idle := time.Duration(cfg.SessionIdleMin) * time.Minute
	sessions := app.NewSessions(idle, func() *app.Shell {
		return app.NewShell(backend, submissions, log)
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg, "/healthz")
	if err != nil {
		return err
	}

	srv := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
	})

	srv.Use(otelfiber.Middleware())
	srv.Use(middleware.RequestID())
	srv.Use(middleware.Logger(log))
	srv.Use(promMiddleware.Handler())

	// Swagger UI with dynamic host and scheme; mounted ahead of the session-scoped routes.
	srv.Get("/swagger/*", handlers.Swagger())

	handlers.RegisterRoutes(srv, handlers.Deps{
		Backend:     backend,
		Submissions: submissions,
		Sessions:    sessions,
		SessionIdle: idle,
		Gatherer:    reg,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server_starting",
			zap.String("addr", addr),
			zap.String("backend", backend.BaseURL()),
			zap.Bool("journal_enabled", repo != nil),
			zap.Bool("archive_enabled", archive != nil),
		)
		errCh <- srv.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	if err := srv.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func openJournal(ctx context.Context, c config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	db, err := database.NewPostgres(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := migration.EnsureMigrated(ctx, db, log, c.Host); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
