package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contentapi/internal/ai/openai"
	"contentapi/internal/config"
	"contentapi/internal/database"
	"contentapi/internal/database/migration"
	"contentapi/internal/events"
	handlers "contentapi/internal/http/handler"
	"contentapi/internal/http/middleware"
	"contentapi/internal/otel"
	"contentapi/internal/repository/postgres"
	"contentapi/internal/service"
	"contentapi/internal/storage"
	"contentapi/internal/worker"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing: OTLP exporter, degrades to noop when disabled or misconfigured
	shutdownTracing, err := otel.Init(rootCtx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(rootCtx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Blob storage: local filesystem by default, S3-compatible object
	// storage (MinIO-supported) when configured
	var backend storage.Backend
	switch cfg.Storage.Type {
	case "objectstore":
		backend, err = storage.NewMinIO(cfg.MinIO)
	default:
		backend, err = storage.NewFS(cfg.Storage.Dir)
	}
	if err != nil {
		log.Fatalf("failed to initialize storage backend: %v", err)
	}

	// Initialize repositories and services
	contentRepo := postgres.NewContentPostgres(db)
	contentSvc := service.NewContentService(backend, contentRepo)

	generator, err := openai.New(cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize metadata generator: %v", err)
	}

	broadcaster := events.NewBroadcaster()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tagger, err := worker.New(
		contentRepo,
		backend,
		generator,
		broadcaster,
		time.Duration(cfg.Worker.PollIntervalSec)*time.Second,
		registry,
	)
	if err != nil {
		log.Fatalf("failed to initialize tagging worker: %v", err)
	}
	go tagger.Run(rootCtx)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promMw, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to initialize prometheus middleware: %v", err)
	}
	app.Use(promMw.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected dependencies
	handlers.RegisterRoutes(app, db, contentSvc, broadcaster)

	addr := ":" + cfg.Port

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	broadcaster.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
