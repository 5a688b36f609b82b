package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"air-quality-api/internal/archive"
	"air-quality-api/internal/config"
	"air-quality-api/internal/database"
	"air-quality-api/internal/feed"
	"air-quality-api/internal/repositories/postgres"
	"air-quality-api/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *logrus.Logger
	AirQualityService services.AirQualityService
	CollectorService  services.CollectorService

	connections *database.ConnectionManager
	archiver    archive.Archiver
}

// NewContainer wires configuration, logging, the database connection and
// the services. It fails fast when the database is unreachable.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger := newLogger(cfg)

	connections := database.NewConnectionManager(&cfg.Database, logger)
	if err := connections.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := postgres.NewAirQualityRepository(connections.GetDB(), cfg.Database.QueryTimeout, logger)

	feedClient := feed.NewClient(cfg.Collector.HTTPTimeout, logger)

	archiver, err := newArchiver(cfg)
	if err != nil {
		connections.Close()
		return nil, fmt.Errorf("failed to open feed archive: %w", err)
	}

	return &Container{
		Config:            cfg,
		Logger:            logger,
		AirQualityService: services.NewAirQualityService(repo, cfg.AirQuality.Threshold, logger),
		CollectorService:  services.NewCollectorService(repo, feedClient, cfg.Collector.FeedsPath, archiver, logger),
		connections:       connections,
		archiver:          archiver,
	}, nil
}

// newArchiver opens the raw payload archive when one is configured. An
// empty path disables archiving, which is the default in Lambda where
// the filesystem does not outlive the container.
func newArchiver(cfg *config.Config) (archive.Archiver, error) {
	if cfg.Collector.ArchivePath == "" {
		return nil, nil
	}

	local, err := archive.NewLocalArchive(cfg.Collector.ArchivePath)
	if err != nil {
		return nil, err
	}

	return archive.NewRetryingArchiver(local, nil), nil
}

// HealthCheck verifies the container's database connectivity
func (c *Container) HealthCheck(ctx context.Context) error {
	return c.connections.HealthCheck(ctx)
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.archiver != nil {
		if err := c.archiver.Close(); err != nil {
			return fmt.Errorf("failed to close feed archive: %w", err)
		}
	}
	if c.connections != nil {
		if err := c.connections.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	if cfg.Environment == "development" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}
