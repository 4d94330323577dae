package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/taskboard/taskboard-api/internal/api"
	"github.com/taskboard/taskboard-api/internal/config"
	"github.com/taskboard/taskboard-api/internal/platform/logger"
	"github.com/taskboard/taskboard-api/internal/platform/natsq"
	"github.com/taskboard/taskboard-api/internal/platform/postgres"
	"github.com/taskboard/taskboard-api/internal/service"
)

// application holds the wired components of the running server.
type application struct {
	config    *config.Config
	logger    *slog.Logger
	db        *sql.DB
	publisher *natsq.Publisher
	router    http.Handler
}

// newApplication loads configuration and wires the full dependency graph:
// config -> logger -> database (+migrations) -> publisher -> stores ->
// services -> handlers -> router.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, err
	}

	publisher, err := natsq.Connect(ctx, natsq.Config{
		URL:     cfg.Queue.URL,
		Stream:  cfg.Queue.Stream,
		Subject: cfg.Queue.Subject,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db, appLogger)
	taskRepo := service.NewTaskRepositoryAdapter(taskStore, db)

	taskService, err := service.NewTaskService(taskRepo, publisher, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	queryService, err := service.NewQueryService(taskRepo, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create query service: %w", err)
	}

	taskHandler := api.NewTaskHandler(taskService, queryService, appLogger)

	return &application{
		config:    cfg,
		logger:    appLogger,
		db:        db,
		publisher: publisher,
		router:    buildRouter(taskHandler),
	}, nil
}

// openDatabase opens the connection pool and verifies connectivity.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// cleanup releases the application's external resources.
func (app *application) cleanup() {
	if app.publisher != nil {
		app.publisher.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
