package services

import (
	"context"

	"air-quality-api/internal/models"
)

// AirQualityService exposes the read operations behind the HTTP endpoints
type AirQualityService interface {
	// GetCurrentReading returns the most recent reading for a location
	GetCurrentReading(ctx context.Context, location string) (*models.Reading, error)

	// GetExceedingLocations returns the locations whose latest reading
	// has at least one pollutant above the configured threshold
	GetExceedingLocations(ctx context.Context) ([]string, error)

	// GetTrend returns the trend report for a location over a timeframe
	GetTrend(ctx context.Context, location string, timeframe models.Timeframe) (*models.TrendReport, error)
}

// CollectionStats summarizes one collection run
type CollectionStats struct {
	Feeds   int `json:"feeds"`
	Entries int `json:"entries"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// CollectorService runs the periodic feed collection job
type CollectorService interface {
	// Run performs one collection pass over all configured feeds
	Run(ctx context.Context) (*CollectionStats, error)
}
