package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:blankimports // File source driver

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
)

// DefaultMigrationsPath is relative to the working directory of the binary.
const DefaultMigrationsPath = "migrations"

func newMigrator(cfg Config, migrationsPath string) (*migrate.Migrate, string, func(), error) {
	if migrationsPath == "" {
		migrationsPath = DefaultMigrationsPath
	}
	if absPath, err := filepath.Abs(migrationsPath); err == nil {
		migrationsPath = absPath
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, "", nil, fmt.Errorf("open database connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, "", nil, fmt.Errorf("create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, "", nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return m, migrationsPath, func() { _ = db.Close() }, nil
}

// RunMigrations applies all pending migrations.
func RunMigrations(cfg Config, migrationsPath string, log infralogger.Logger) error {
	m, path, closeDB, err := newMigrator(cfg, migrationsPath)
	if err != nil {
		return err
	}
	defer closeDB()

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No pending migrations", infralogger.String("migrations_path", path))
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Info("Migrations applied successfully", infralogger.String("migrations_path", path))
	return nil
}

// MigrateDown rolls back steps migrations; steps below 1 means one.
func MigrateDown(cfg Config, migrationsPath string, steps int, log infralogger.Logger) error {
	if steps < 1 {
		steps = 1
	}

	m, path, closeDB, err := newMigrator(cfg, migrationsPath)
	if err != nil {
		return err
	}
	defer closeDB()

	if err = m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migrations to roll back", infralogger.String("migrations_path", path))
			return nil
		}
		return fmt.Errorf("roll back migrations: %w", err)
	}

	log.Info("Migrations rolled back",
		infralogger.String("migrations_path", path),
		infralogger.Int("steps", steps),
	)
	return nil
}
