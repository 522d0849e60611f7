// Package migration wraps golang-migrate for the fulfillment schema. The
// migrate command drives it; the server never migrates on boot.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies versioned SQL migrations from a directory against postgres.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New builds a Migrator over an open database handle. The path points at the
// directory holding NNN_name.up.sql / NNN_name.down.sql pairs.
func New(db *sql.DB, path string, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migration source %q: %w", path, err)
	}
	return &Migrator{m: m, log: log}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("schema already current")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	return mg.logVersion("migrations applied")
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	if err := mg.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("nothing to roll back")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}
	mg.log.Info("all migrations rolled back")
	return nil
}

// Steps applies n migrations forward, or rolls back -n when negative.
func (mg *Migrator) Steps(n int) error {
	if err := mg.m.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("schema already current")
			return nil
		}
		return fmt.Errorf("migrate %d steps: %w", n, err)
	}
	return mg.logVersion("migration steps applied")
}

// GoTo migrates up or down until the schema sits at the given version.
func (mg *Migrator) GoTo(version uint) error {
	if err := mg.m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("already at version", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}
	mg.log.Info("migrated to version", zap.Uint("version", version))
	return nil
}

// Version reports the current schema version. A fresh database with no
// applied migrations reports version 0 and no error.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force stamps the schema version without running any SQL. Only for
// recovering a dirty state after a failed migration.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database, data included.
func (mg *Migrator) Drop() error {
	mg.log.Warn("dropping all database objects")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// Close releases the source and database handles held by the migrator.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) logVersion(msg string) error {
	version, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	mg.log.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
