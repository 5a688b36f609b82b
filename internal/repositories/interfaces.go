package repositories

import (
	"context"
	"time"

	"air-quality-api/internal/models"
)

// AirQualityRepository is the read/write surface over the air_quality table.
// The HTTP handlers only ever read; Insert exists for the collection job.
type AirQualityRepository interface {
	// Insert stores a reading, silently skipping rows whose
	// (location, report_date) pair has already been collected.
	Insert(ctx context.Context, reading *models.Reading) error

	// LatestByLocation returns the most recent reading for a location,
	// or a not-found error when the location has no history.
	LatestByLocation(ctx context.Context, location string) (*models.Reading, error)

	// LocationsAboveThreshold returns every distinct location whose
	// reading on the most recent report date has at least one pollutant
	// above the given AQI threshold, ordered by location name.
	LocationsAboveThreshold(ctx context.Context, threshold int) ([]string, error)

	// SeriesSince returns the readings for a location from the given
	// instant onwards, ordered by report date ascending.
	SeriesSince(ctx context.Context, location string, since time.Time) ([]*models.Reading, error)
}
