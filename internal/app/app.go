// Package app assembles the import service from configuration. Both the HTTP server and
// the command line tool start here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/rpattn/munimport/internal/auth"
	"github.com/rpattn/munimport/internal/config"
	"github.com/rpattn/munimport/internal/db"
	"github.com/rpattn/munimport/internal/ingestion"
	"github.com/rpattn/munimport/internal/middleware"
	"github.com/rpattn/munimport/internal/repository"
	"github.com/rpattn/munimport/internal/storage"
)

// App holds the wired service and the resources that must be released with it.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Service  *ingestion.Service
	Registry *prometheus.Registry

	conn    *db.Connection
	closers []func() error
}

// Build connects storage and repositories according to cfg. With the postgres
// repository it applies pending migrations before opening the pool.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	logs, records, err := a.repositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	blobs, err := a.blobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = ingestion.NewService(blobs, logs, records,
		ingestion.WithLogger(logger),
		ingestion.WithMetrics(ingestion.NewMetrics(a.Registry)),
		ingestion.WithNotifier(logNotifier(logger)),
		ingestion.WithBatchSize(cfg.Ingestion.BatchSize),
		ingestion.WithStrictReplace(cfg.Ingestion.StrictReplace),
		ingestion.WithStageTTL(cfg.Ingestion.StageTTL),
		ingestion.WithSampleSize(cfg.Ingestion.SampleSize),
	)
	return a, nil
}

func (a *App) repositories(ctx context.Context) (repository.IngestionLogRepository, repository.RecordRepository, error) {
	if a.Config.Ingestion.Repository == "memory" {
		a.Logger.Info("using in-memory repositories, nothing will be persisted")
		return repository.NewMemoryIngestionLogRepository(), repository.NewMemoryRecordRepository(), nil
	}

	if err := db.RunMigrations(a.Config.Database, a.Logger); err != nil {
		return nil, nil, err
	}
	conn, err := db.NewConnection(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	a.conn = conn
	a.closers = append(a.closers, func() error {
		conn.Close()
		return nil
	})
	return repository.NewIngestionLogRepository(conn.Pool), repository.NewRecordRepository(conn.Pool), nil
}

func (a *App) blobStore(ctx context.Context) (storage.BlobStore, error) {
	cfg := a.Config.Storage
	switch cfg.Backend {
	case "gcs":
		store, err := storage.NewGCSStore(ctx, storage.GCSConfig{
			Bucket:          cfg.GCSBucket,
			Prefix:          cfg.GCSPrefix,
			CredentialsFile: cfg.GCSCredentialsFile,
			Endpoint:        cfg.GCSEndpoint,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "local", "":
		return storage.NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Handler serves the import API, /metrics and /healthz.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	imports := ingestion.NewHTTPHandler(a.Service, ingestion.WithMaxUploadBytes(a.Config.Server.MaxUploadBytes))
	mux.Handle("/imports", imports)
	mux.Handle("/imports/", imports)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", a.handleHealth)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   a.Config.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})
	return corsHandler.Handler(middleware.LoggingMiddleware(a.Logger)(auth.OwnerScopeMiddleware(mux)))
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.conn != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.conn.Pool.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Close releases storage clients and the database pool.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

func logNotifier(logger *slog.Logger) ingestion.Notifier {
	logger = logger.With("module", "notify")
	return ingestion.NotifierFunc(func(ctx context.Context, c ingestion.Completion) {
		logger.InfoContext(ctx, c.Message,
			"ingestion_id", c.IngestionID,
			"table", c.Table,
			"status", c.Status,
		)
	})
}
