package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"air-quality-api/internal/models"
	"air-quality-api/internal/repositories"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// The repository queries are written so their placeholders bind identically
// under SQLite, which keeps these tests hermetic the same way the rest of
// the suite is.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempDir, err := os.MkdirTemp("", "airquality_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE air_quality (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			link TEXT,
			location TEXT NOT NULL,
			report_date DATETIME,
			air_quality_pm25 INTEGER,
			air_quality_pm10 INTEGER,
			air_quality_ozone INTEGER,
			agency TEXT,
			last_update DATETIME
		);
		CREATE UNIQUE INDEX idx_air_quality_location_report_date
			ON air_quality (location, report_date);
	`)
	if err != nil {
		t.Fatalf("Failed to create air_quality table: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func intPtr(v int) *int {
	return &v
}

func seedReading(t *testing.T, repo repositories.AirQualityRepository, location string, reportDate time.Time, pm25, pm10, ozone *int) {
	t.Helper()

	reading := &models.Reading{
		Location:   location,
		ReportDate: reportDate,
		PM25:       pm25,
		PM10:       pm10,
		Ozone:      ozone,
		Agency:     "Test Agency",
	}

	if err := repo.Insert(context.Background(), reading); err != nil {
		t.Fatalf("Insert(%s, %s) failed: %v", location, reportDate, err)
	}
}

func TestAirQualityRepository_LatestByLocation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedReading(t, repo, "Seattle", base, intPtr(30), nil, intPtr(20))
	seedReading(t, repo, "Seattle", base.Add(2*time.Hour), intPtr(42), intPtr(55), nil)
	seedReading(t, repo, "Portland", base.Add(3*time.Hour), intPtr(60), nil, nil)

	reading, err := repo.LatestByLocation(ctx, "Seattle")
	if err != nil {
		t.Fatalf("LatestByLocation() failed: %v", err)
	}

	if reading.Location != "Seattle" {
		t.Errorf("Location = %q, want %q", reading.Location, "Seattle")
	}

	if !reading.ReportDate.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("ReportDate = %s, want %s", reading.ReportDate, base.Add(2*time.Hour))
	}

	if reading.PM25 == nil || *reading.PM25 != 42 {
		t.Errorf("PM25 = %v, want 42", reading.PM25)
	}

	if reading.Ozone != nil {
		t.Errorf("Ozone = %v, want nil", *reading.Ozone)
	}
}

func TestAirQualityRepository_LatestByLocation_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())

	_, err := repo.LatestByLocation(context.Background(), "Nowhere")
	if err == nil {
		t.Fatal("LatestByLocation() succeeded for unknown location")
	}

	if !repositories.IsNotFound(err) {
		t.Errorf("LatestByLocation() error = %v, want not-found", err)
	}
}

func TestAirQualityRepository_LatestByLocation_EmptyLocation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())

	_, err := repo.LatestByLocation(context.Background(), "  ")
	if err == nil {
		t.Fatal("LatestByLocation() succeeded for blank location")
	}

	if !errors.Is(err, repositories.ErrInvalidID) {
		t.Errorf("LatestByLocation() error = %v, want invalid-identifier", err)
	}
}

func TestAirQualityRepository_LocationsAboveThreshold(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())
	ctx := context.Background()

	latest := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	earlier := latest.Add(-24 * time.Hour)

	// Latest date: Tacoma and Yakima exceed, Seattle does not.
	seedReading(t, repo, "Seattle", latest, intPtr(40), intPtr(35), intPtr(22))
	seedReading(t, repo, "Tacoma", latest, intPtr(150), nil, nil)
	seedReading(t, repo, "Yakima", latest, nil, nil, intPtr(101))
	// Exceeded yesterday, but yesterday is not the latest report date.
	seedReading(t, repo, "Spokane", earlier, intPtr(300), nil, nil)

	locations, err := repo.LocationsAboveThreshold(ctx, 100)
	if err != nil {
		t.Fatalf("LocationsAboveThreshold() failed: %v", err)
	}

	want := []string{"Tacoma", "Yakima"}
	if len(locations) != len(want) {
		t.Fatalf("LocationsAboveThreshold() = %v, want %v", locations, want)
	}
	for i := range want {
		if locations[i] != want[i] {
			t.Errorf("locations[%d] = %q, want %q", i, locations[i], want[i])
		}
	}
}

func TestAirQualityRepository_LocationsAboveThreshold_Boundary(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())
	ctx := context.Background()

	latest := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)

	// Exactly at the threshold is not "exceeding".
	seedReading(t, repo, "Everett", latest, intPtr(100), intPtr(100), intPtr(100))

	locations, err := repo.LocationsAboveThreshold(ctx, 100)
	if err != nil {
		t.Fatalf("LocationsAboveThreshold() failed: %v", err)
	}

	if len(locations) != 0 {
		t.Errorf("LocationsAboveThreshold() = %v, want empty (values at threshold)", locations)
	}
}

func TestAirQualityRepository_SeriesSince_Ordered(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())
	ctx := context.Background()

	base := time.Date(2026, 7, 26, 8, 0, 0, 0, time.UTC)

	// Seed out of chronological order.
	seedReading(t, repo, "Seattle", base.Add(48*time.Hour), intPtr(50), nil, nil)
	seedReading(t, repo, "Seattle", base, intPtr(30), nil, nil)
	seedReading(t, repo, "Seattle", base.Add(24*time.Hour), intPtr(40), nil, nil)
	// Different location must not leak into the series.
	seedReading(t, repo, "Portland", base.Add(12*time.Hour), intPtr(90), nil, nil)
	// Before the window.
	seedReading(t, repo, "Seattle", base.Add(-48*time.Hour), intPtr(10), nil, nil)

	series, err := repo.SeriesSince(ctx, "Seattle", base)
	if err != nil {
		t.Fatalf("SeriesSince() failed: %v", err)
	}

	if len(series) != 3 {
		t.Fatalf("SeriesSince() returned %d readings, want 3", len(series))
	}

	for i, reading := range series {
		if reading.Location != "Seattle" {
			t.Errorf("series[%d].Location = %q, want %q", i, reading.Location, "Seattle")
		}
		if i > 0 && series[i].ReportDate.Before(series[i-1].ReportDate) {
			t.Errorf("series not ordered: [%d]=%s before [%d]=%s",
				i, series[i].ReportDate, i-1, series[i-1].ReportDate)
		}
	}

	if *series[0].PM25 != 30 || *series[2].PM25 != 50 {
		t.Errorf("series endpoints = %d..%d, want 30..50", *series[0].PM25, *series[2].PM25)
	}
}

func TestAirQualityRepository_Insert_DuplicateIgnored(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())
	ctx := context.Background()

	reportDate := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedReading(t, repo, "Seattle", reportDate, intPtr(42), nil, nil)

	// Same (location, report_date) with a different value: skipped, not an error.
	dup := &models.Reading{
		Location:   "Seattle",
		ReportDate: reportDate,
		PM25:       intPtr(99),
	}
	if err := repo.Insert(ctx, dup); err != nil {
		t.Fatalf("Insert() of duplicate failed: %v", err)
	}

	reading, err := repo.LatestByLocation(ctx, "Seattle")
	if err != nil {
		t.Fatalf("LatestByLocation() failed: %v", err)
	}

	if *reading.PM25 != 42 {
		t.Errorf("PM25 = %d after duplicate insert, want original 42", *reading.PM25)
	}
}

func TestAirQualityRepository_Insert_Invalid(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Minute, testLogger())

	err := repo.Insert(context.Background(), &models.Reading{Location: "Seattle"})
	if err == nil {
		t.Fatal("Insert() succeeded for reading without report date")
	}

	if !repositories.IsValidation(err) {
		t.Errorf("Insert() error = %v, want validation error", err)
	}
}

func TestAirQualityRepository_QueryFailureSurfaces(t *testing.T) {
	db, cleanup := setupTestDB(t)
	cleanup() // close the database up front to force failures

	repo := NewAirQualityRepository(db, time.Minute, testLogger())
	ctx := context.Background()

	if _, err := repo.LatestByLocation(ctx, "Seattle"); err == nil {
		t.Error("LatestByLocation() succeeded on closed database")
	}

	if _, err := repo.LocationsAboveThreshold(ctx, 100); err == nil {
		t.Error("LocationsAboveThreshold() succeeded on closed database")
	}

	if _, err := repo.SeriesSince(ctx, "Seattle", time.Now()); err == nil {
		t.Error("SeriesSince() succeeded on closed database")
	}
}

func TestAirQualityRepository_QueryTimeoutApplied(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// An expired per-query budget must stop the query even when the
	// caller's context carries no deadline.
	repo := NewAirQualityRepository(db, time.Nanosecond, testLogger())

	_, err := repo.LatestByLocation(context.Background(), "Seattle")
	if err == nil {
		t.Fatal("LatestByLocation() succeeded with an expired query timeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("LatestByLocation() error = %v, want context.DeadlineExceeded", err)
	}

	if _, err := repo.SeriesSince(context.Background(), "Seattle", time.Now()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("SeriesSince() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestAirQualityRepository_CallerDeadlinePreserved(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAirQualityRepository(db, time.Nanosecond, testLogger())
	ctx := context.Background()

	seedReading(t, seedRepository(db), "Seattle", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), intPtr(42), nil, nil)

	// A context that already carries a generous deadline is left alone,
	// so the tight repository budget does not apply.
	deadlineCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if _, err := repo.LatestByLocation(deadlineCtx, "Seattle"); err != nil {
		t.Errorf("LatestByLocation() failed despite caller deadline: %v", err)
	}
}

// seedRepository builds a repository without a query budget for seeding
func seedRepository(db *sql.DB) repositories.AirQualityRepository {
	return NewAirQualityRepository(db, 0, testLogger())
}
