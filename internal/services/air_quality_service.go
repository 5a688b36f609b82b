package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"air-quality-api/internal/models"
	"air-quality-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

type airQualityService struct {
	repo      repositories.AirQualityRepository
	threshold int
	logger    *logrus.Logger
	now       func() time.Time
}

// NewAirQualityService creates the read service over the given repository.
// threshold is the AQI value a pollutant must exceed for its location to
// count as exceeding.
func NewAirQualityService(repo repositories.AirQualityRepository, threshold int, logger *logrus.Logger) AirQualityService {
	if logger == nil {
		logger = logrus.New()
	}
	return &airQualityService{
		repo:      repo,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *airQualityService) GetCurrentReading(ctx context.Context, location string) (*models.Reading, error) {
	if strings.TrimSpace(location) == "" {
		return nil, repositories.ValidationError("location", location, fmt.Errorf("location is required"))
	}

	return s.repo.LatestByLocation(ctx, location)
}

func (s *airQualityService) GetExceedingLocations(ctx context.Context) ([]string, error) {
	return s.repo.LocationsAboveThreshold(ctx, s.threshold)
}

func (s *airQualityService) GetTrend(ctx context.Context, location string, timeframe models.Timeframe) (*models.TrendReport, error) {
	if strings.TrimSpace(location) == "" {
		return nil, repositories.ValidationError("location", location, fmt.Errorf("location is required"))
	}

	since := s.now().AddDate(0, 0, -timeframe.Days())

	series, err := s.repo.SeriesSince(ctx, location, since)
	if err != nil {
		return nil, err
	}

	if len(series) == 0 {
		return nil, repositories.NotFoundError("location", location)
	}

	first := series[0]
	last := series[len(series)-1]

	report := &models.TrendReport{
		Location:    location,
		Timeframe:   timeframe,
		PM25Change:  models.PercentChange(first.PM25, last.PM25),
		PM10Change:  models.PercentChange(first.PM10, last.PM10),
		OzoneChange: models.PercentChange(first.Ozone, last.Ozone),
		Series:      series,
	}
	report.Direction = models.DirectionOf(report.PM25Change, report.PM10Change, report.OzoneChange)

	s.logger.WithFields(logrus.Fields{
		"location":  location,
		"timeframe": timeframe,
		"readings":  len(series),
		"direction": report.Direction,
	}).Debug("Trend computed")

	return report, nil
}
