package models

import (
	"fmt"
	"strings"
	"time"
)

// Reading represents a single timestamped air-quality measurement for a
// monitored location. Pollutant values are AQI numbers and may be absent
// when the reporting agency did not publish them.
type Reading struct {
	ID         int64      `json:"-"`
	Title      string     `json:"-"`
	Link       string     `json:"-"`
	Location   string     `json:"location"`
	ReportDate time.Time  `json:"timestamp"`
	PM25       *int       `json:"pm25"`
	PM10       *int       `json:"pm10"`
	Ozone      *int       `json:"ozone"`
	Agency     string     `json:"-"`
	LastUpdate *time.Time `json:"-"`
}

// Validate checks that a reading is storable
func (r *Reading) Validate() error {
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("location is required")
	}

	if r.ReportDate.IsZero() {
		return fmt.Errorf("report date is required")
	}

	if r.PM25 == nil && r.PM10 == nil && r.Ozone == nil {
		return fmt.Errorf("reading carries no measurements")
	}

	for _, m := range []struct {
		name  string
		value *int
	}{
		{"pm25", r.PM25},
		{"pm10", r.PM10},
		{"ozone", r.Ozone},
	} {
		if m.value != nil && *m.value < 0 {
			return fmt.Errorf("%s AQI cannot be negative: %d", m.name, *m.value)
		}
	}

	return nil
}

// ExceedsThreshold reports whether any pollutant in the reading is above
// the given AQI threshold.
func (r *Reading) ExceedsThreshold(threshold int) bool {
	for _, v := range []*int{r.PM25, r.PM10, r.Ozone} {
		if v != nil && *v > threshold {
			return true
		}
	}
	return false
}
