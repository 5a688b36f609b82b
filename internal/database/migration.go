package database

import (
	"fmt"
	"strings"

	"air-quality-api/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// Migrator applies SQL migrations to the database
type Migrator struct {
	config *config.DatabaseConfig
	logger *logrus.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(cfg *config.DatabaseConfig, logger *logrus.Logger) *Migrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Migrator{
		config: cfg,
		logger: logger,
	}
}

// migrateURL rewrites the DSN for golang-migrate's pgx/v5 driver, which
// registers the pgx5 scheme.
func (m *Migrator) migrateURL() string {
	return strings.Replace(m.config.DSN(), "postgres://", "pgx5://", 1)
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	sourceURL := fmt.Sprintf("file://%s", m.config.MigrationsPath)

	mg, err := migrate.New(sourceURL, m.migrateURL())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	return mg, nil
}

// Up applies all pending migrations
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		if err == migrate.ErrNoChange {
			m.logger.Info("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	m.logger.Info("Database migrations applied")
	return nil
}

// Down rolls back the most recent migration
func (m *Migrator) Down() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Steps(-1); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	m.logger.Info("Rolled back one migration")
	return nil
}

// Version returns the current migration version
func (m *Migrator) Version() (uint, bool, error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}

	return version, dirty, nil
}
