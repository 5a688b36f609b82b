package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"air-quality-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// baseRepository provides query execution with structured logging,
// shared by the concrete repositories in this package.
type baseRepository struct {
	db           *sql.DB
	table        string
	queryTimeout time.Duration
	logger       *logrus.Logger
}

func newBaseRepository(db *sql.DB, table string, queryTimeout time.Duration, logger *logrus.Logger) baseRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return baseRepository{
		db:           db,
		table:        table,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// withTimeout bounds an operation with the configured per-query timeout
// when the inbound context carries no deadline of its own.
func (r *baseRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// logQuery logs a query with its execution time
func (r *baseRepository) logQuery(operation string, query string, args []interface{}, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     r.table,
		"duration":  duration,
	}

	if err != nil {
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Query failed")
	} else {
		fields["query"] = query
		fields["args"] = args
		r.logger.WithFields(fields).Debug("Query executed")
	}
}

// executeQuery executes a multi-row query and logs the result
func (r *baseRepository) executeQuery(ctx context.Context, operation, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	duration := time.Since(start)

	r.logQuery(operation, query, args, duration, err)

	if err != nil {
		return nil, repositories.NewRepositoryError(operation, r.table, "", err)
	}

	return rows, nil
}

// executeQueryRow executes a single-row query and logs it
func (r *baseRepository) executeQueryRow(ctx context.Context, operation, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := r.db.QueryRowContext(ctx, query, args...)
	duration := time.Since(start)

	r.logQuery(operation, query, args, duration, nil)

	return row
}

// executeExec executes a non-query statement and logs the result
func (r *baseRepository) executeExec(ctx context.Context, operation, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, args...)
	duration := time.Since(start)

	r.logQuery(operation, query, args, duration, err)

	if err != nil {
		return nil, repositories.NewRepositoryError(operation, r.table, "", err)
	}

	return result, nil
}

// validateLocation validates that a location identifier is not empty
func (r *baseRepository) validateLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return repositories.NewRepositoryError("validate", r.table, location, repositories.ErrInvalidID)
	}
	return nil
}
