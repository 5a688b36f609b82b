package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"air-quality-api/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// pingTimeout bounds the startup connectivity check so a misconfigured
// host fails fast instead of hanging an invocation.
const pingTimeout = 10 * time.Second

// ConnectionManager owns the database handle for a process. The handle
// is a pool: each query checks a connection out and returns it when the
// rows are closed, on success and failure alike.
type ConnectionManager struct {
	config *config.DatabaseConfig
	logger *logrus.Logger
	db     *sql.DB
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(cfg *config.DatabaseConfig, logger *logrus.Logger) *ConnectionManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConnectionManager{
		config: cfg,
		logger: logger,
	}
}

// Connect opens the database handle and verifies connectivity
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	if cm.db != nil {
		return fmt.Errorf("database connection already established")
	}

	db, err := sql.Open("pgx", cm.config.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cm.config.MaxOpenConns)
	db.SetMaxIdleConns(cm.config.MaxIdleConns)
	db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.logger.WithFields(logrus.Fields{
		"host": cm.config.Host,
		"name": cm.config.Name,
	}).Info("Database connection established")

	return nil
}

// GetDB returns the database handle
func (cm *ConnectionManager) GetDB() *sql.DB {
	return cm.db
}

// Close closes the database handle
func (cm *ConnectionManager) Close() error {
	if cm.db == nil {
		return nil
	}

	err := cm.db.Close()
	cm.db = nil

	if err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	cm.logger.Info("Database connection closed")
	return nil
}

// Ping tests the database connection
func (cm *ConnectionManager) Ping(ctx context.Context) error {
	if cm.db == nil {
		return fmt.Errorf("database connection not established")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := cm.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// HealthCheck verifies the connection can execute a query
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := cm.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	return nil
}
