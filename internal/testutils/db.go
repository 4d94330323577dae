package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/store"
)

// migrationsRunOnce ensures migrations are only run once across all tests.
var migrationsRunOnce sync.Once

// GetTestDB opens a connection to the test database identified by
// DATABASE_URL and makes sure the schema is up to date. Callers are
// responsible for closing the returned handle.
func GetTestDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}

	var migrateErr error
	migrationsRunOnce.Do(func() {
		migrateErr = applyMigrations(db)
	})
	if migrateErr != nil {
		_ = db.Close()
		return nil, migrateErr
	}

	return db, nil
}

// applyMigrations runs the project's goose migrations against the test
// database so tests always see the canonical schema.
func applyMigrations(db *sql.DB) error {
	dir, err := findMigrationsDir()
	if err != nil {
		return err
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// findMigrationsDir locates the migrations directory relative to this
// source file, so tests work regardless of the package they run from.
func findMigrationsDir() (string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to determine caller location")
	}

	dir := filepath.Join(filepath.Dir(thisFile), "..", "..", "cmd", "server", "migrations")
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("migrations directory not found at %s: %w", dir, err)
	}
	return dir, nil
}

// AssertCloseNoError closes the database and fails the test if closing errors.
func AssertCloseNoError(t *testing.T, db *sql.DB) {
	t.Helper()
	require.NoError(t, db.Close(), "Failed to close database connection")
}

// MustInsertTask inserts a task row directly and returns it. The task gets
// pending status, medium priority, and a unique title unless overridden via
// the returned value before use.
func MustInsertTask(ctx context.Context, t *testing.T, db store.DBTX, ownerID uuid.UUID) *domain.Task {
	t.Helper()

	now := time.Now().UTC()
	task := &domain.Task{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     fmt.Sprintf("test task %s", uuid.New().String()[:8]),
		Status:    domain.TaskStatusPending,
		Priority:  domain.TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, task.ID, task.OwnerID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.CreatedAt, task.UpdatedAt)
	require.NoError(t, err, "Failed to insert test task")

	return task
}

// CleanupOwnerTasks registers a cleanup that removes every task belonging to
// the given owner. Tests that commit real transactions use this instead of
// transaction-scoped isolation.
func CleanupOwnerTasks(t *testing.T, db *sql.DB, ownerID uuid.UUID) {
	t.Helper()
	t.Cleanup(func() {
		_, err := db.Exec("DELETE FROM tasks WHERE owner_id = $1", ownerID)
		if err != nil {
			t.Logf("Warning: failed to clean up tasks for owner %s: %v", ownerID, err)
		}
	})
}

// CountOwnerTasks returns the number of task rows for the owner.
func CountOwnerTasks(ctx context.Context, t *testing.T, db store.DBTX, ownerID uuid.UUID) int {
	t.Helper()
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE owner_id = $1", ownerID,
	).Scan(&count)
	require.NoError(t, err, "Failed to count tasks")
	return count
}
