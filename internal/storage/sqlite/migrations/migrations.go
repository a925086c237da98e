package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/magnetctl/internal/log"
)

//go:embed sql/*.sql
var journalSchema embed.FS

// ErrDirtySchema is returned when a previous journal migration was interrupted.
var ErrDirtySchema = errors.New("journal schema is dirty")

// MigratorConfig is the configuration for the journal schema migrator.
type MigratorConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *MigratorConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Migrator"})
	return nil
}

// Migrator keeps the journal schema up to date. The journal only moves forward,
// there is no way back to an older schema.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator creates a new journal schema migrator.
func NewMigrator(cfg MigratorConfig) (*Migrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Migrator{db: cfg.DB, logger: cfg.Logger}, nil
}

// Up applies the pending journal migrations and returns the resulting schema version.
func (m *Migrator) Up() (uint, error) {
	var version uint
	err := m.withInstance(func(inst *migrate.Migrate) error {
		if err := inst.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not apply journal migrations: %w", err)
		}

		v, err := schemaVersion(inst)
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.logger.Debugf("Journal schema at version %d", version)
	return version, nil
}

// Version returns the journal schema version, 0 when no migration has been applied.
func (m *Migrator) Version() (uint, error) {
	var version uint
	err := m.withInstance(func(inst *migrate.Migrate) error {
		v, err := schemaVersion(inst)
		version = v
		return err
	})
	return version, err
}

func schemaVersion(inst *migrate.Migrate) (uint, error) {
	v, dirty, err := inst.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not get journal schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("version %d: %w", v, ErrDirtySchema)
	}
	return v, nil
}

// withInstance runs fn with a migrate instance over the embedded journal schema.
// Only the source is closed afterwards, closing the instance would close the db.
func (m *Migrator) withInstance(fn func(inst *migrate.Migrate) error) error {
	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(journalSchema, "sql")
	if err != nil {
		return fmt.Errorf("could not load journal schema: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.Errorf("could not close journal schema source: %s", err)
		}
	}()

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	return fn(inst)
}
