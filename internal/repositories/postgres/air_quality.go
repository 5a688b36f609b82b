package postgres

import (
	"context"
	"database/sql"
	"time"

	"air-quality-api/internal/models"
	"air-quality-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// AirQualityRepository implements repositories.AirQualityRepository on
// top of the air_quality table.
type AirQualityRepository struct {
	baseRepository
}

// NewAirQualityRepository creates a new air-quality repository. Queries
// run under queryTimeout when the caller's context has no deadline; zero
// disables the bound.
func NewAirQualityRepository(db *sql.DB, queryTimeout time.Duration, logger *logrus.Logger) repositories.AirQualityRepository {
	return &AirQualityRepository{
		baseRepository: newBaseRepository(db, "air_quality", queryTimeout, logger),
	}
}

// Insert stores a reading. Duplicate (location, report_date) pairs are
// skipped so the collector can replay a feed without erroring.
func (r *AirQualityRepository) Insert(ctx context.Context, reading *models.Reading) error {
	if err := reading.Validate(); err != nil {
		return repositories.ValidationError("reading", reading.Location, err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO air_quality (
			title, link, location, report_date,
			air_quality_pm25, air_quality_pm10, air_quality_ozone,
			agency, last_update
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (location, report_date) DO NOTHING`

	_, err := r.executeExec(ctx, "insert", query,
		reading.Title,
		reading.Link,
		reading.Location,
		reading.ReportDate,
		nullInt(reading.PM25),
		nullInt(reading.PM10),
		nullInt(reading.Ozone),
		reading.Agency,
		nullTime(reading.LastUpdate),
	)

	return err
}

// LatestByLocation returns the most recent reading for a location.
func (r *AirQualityRepository) LatestByLocation(ctx context.Context, location string) (*models.Reading, error) {
	if err := r.validateLocation(location); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT location, report_date,
			   air_quality_pm25, air_quality_pm10, air_quality_ozone
		FROM air_quality
		WHERE location = $1 AND report_date IS NOT NULL
		ORDER BY report_date DESC
		LIMIT 1`

	row := r.executeQueryRow(ctx, "latest_by_location", query, location)

	reading, err := scanReading(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("location", location)
		}
		return nil, repositories.NewRepositoryError("latest_by_location", r.table, location, err)
	}

	return reading, nil
}

// LocationsAboveThreshold returns the distinct locations whose reading on
// the most recent report date has any pollutant above the threshold.
func (r *AirQualityRepository) LocationsAboveThreshold(ctx context.Context, threshold int) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT DISTINCT location
		FROM air_quality
		WHERE report_date = (SELECT MAX(report_date) FROM air_quality)
		  AND (air_quality_pm10 > $1
			   OR air_quality_pm25 > $1
			   OR air_quality_ozone > $1)
		ORDER BY location`

	rows, err := r.executeQuery(ctx, "locations_above_threshold", query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var location string
		if err := rows.Scan(&location); err != nil {
			return nil, repositories.NewRepositoryError("locations_above_threshold", r.table, "", err)
		}
		locations = append(locations, location)
	}

	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("locations_above_threshold", r.table, "", err)
	}

	return locations, nil
}

// SeriesSince returns the readings for a location from the given instant
// onwards, ordered by report date ascending.
func (r *AirQualityRepository) SeriesSince(ctx context.Context, location string, since time.Time) ([]*models.Reading, error) {
	if err := r.validateLocation(location); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT location, report_date,
			   air_quality_pm25, air_quality_pm10, air_quality_ozone
		FROM air_quality
		WHERE location = $1 AND report_date >= $2
		ORDER BY report_date ASC`

	rows, err := r.executeQuery(ctx, "series_since", query, location, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []*models.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("series_since", r.table, location, err)
		}
		series = append(series, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("series_since", r.table, location, err)
	}

	return series, nil
}

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(s scanner) (*models.Reading, error) {
	var (
		reading    models.Reading
		reportDate sql.NullTime
		pm25       sql.NullInt64
		pm10       sql.NullInt64
		ozone      sql.NullInt64
	)

	if err := s.Scan(&reading.Location, &reportDate, &pm25, &pm10, &ozone); err != nil {
		return nil, err
	}

	if reportDate.Valid {
		reading.ReportDate = reportDate.Time
	}
	reading.PM25 = intFromNull(pm25)
	reading.PM10 = intFromNull(pm10)
	reading.Ozone = intFromNull(ozone)

	return &reading, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
