package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/storage/sqlite/migrations"
)

// MemoryDBPath opens a private in-memory database that lives as long as the repository.
const MemoryDBPath = ":memory:"

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.EventRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dsn := MemoryDBPath
	if cfg.DBPath != MemoryDBPath {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create db directory: %w", err)
		}
		dsn = fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Every connection to ":memory:" is a different database.
	if cfg.DBPath == MemoryDBPath {
		db.SetMaxOpenConns(1)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	version, err := migrator.Up()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s (schema version %d)", cfg.DBPath, version)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// AppendEvent appends an event to the task journal.
func (r *Repository) AppendEvent(ctx context.Context, e model.Event) error {
	if e.TaskID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxSeq int
	query := `SELECT COALESCE(MAX(sequence), 0) FROM task_events WHERE task_id = ?`
	if err := tx.QueryRowContext(ctx, query, e.TaskID).Scan(&maxSeq); err != nil {
		return fmt.Errorf("could not get max sequence: %w", err)
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	insertQuery := `
		INSERT INTO task_events (id, task_id, sequence, kind, status, progress, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		ulid.Make().String(),
		e.TaskID,
		maxSeq+1,
		e.Kind,
		e.Status,
		e.Progress,
		e.Message,
		e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("could not insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Appended %s event %d for task %s", e.Kind, maxSeq+1, e.TaskID)
	return nil
}

// ListEvents returns the events of a task ordered by sequence.
func (r *Repository) ListEvents(ctx context.Context, taskID string) ([]model.Event, error) {
	query := `
		SELECT id, task_id, sequence, kind, status, progress, message, created_at
		FROM task_events
		WHERE task_id = ?
		ORDER BY sequence ASC
	`

	return r.queryEvents(ctx, query, taskID)
}

// ListAllEvents returns every event ordered by creation.
func (r *Repository) ListAllEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT id, task_id, sequence, kind, status, progress, message, created_at
		FROM task_events
		ORDER BY created_at ASC, rowid ASC
	`

	return r.queryEvents(ctx, query)
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var createdAt int64
		err := rows.Scan(
			&e.ID,
			&e.TaskID,
			&e.Sequence,
			&e.Kind,
			&e.Status,
			&e.Progress,
			&e.Message,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan event: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate events: %w", err)
	}

	return events, nil
}
