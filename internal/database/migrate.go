package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending up-migrations.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := newMigrator(dsn, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	ver, dirty, _ := m.Version()
	slog.Info("database migrations applied", "version", ver, "dirty", dirty)
	return nil
}

// RollbackMigrations reverts the given number of applied migrations.
func RollbackMigrations(dsn, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	m, err := newMigrator(dsn, migrationsPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migrations: %w", err)
	}

	ver, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		slog.Info("database migrations rolled back", "version", "none")
		return nil
	}
	slog.Info("database migrations rolled back", "version", ver, "dirty", dirty)
	return nil
}

func newMigrator(dsn, migrationsPath string) (*migrate.Migrate, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
