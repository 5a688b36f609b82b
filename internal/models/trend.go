package models

import (
	"fmt"
	"math"
)

// Timeframe selects how far back a trend window reaches.
type Timeframe string

const (
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// ParseTimeframe validates a timeframe query value. The empty string
// defaults to a week, matching the original delivery behaviour.
func ParseTimeframe(value string) (Timeframe, error) {
	switch value {
	case "":
		return TimeframeWeek, nil
	case string(TimeframeWeek):
		return TimeframeWeek, nil
	case string(TimeframeMonth):
		return TimeframeMonth, nil
	default:
		return "", fmt.Errorf("invalid timeframe %q: use \"week\" or \"month\"", value)
	}
}

// Days returns the window length in days.
func (t Timeframe) Days() int {
	if t == TimeframeMonth {
		return 30
	}
	return 7
}

// TrendDirection summarizes how air quality moved over a window.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendWorsening TrendDirection = "worsening"
	TrendMixed     TrendDirection = "mixed"
)

// TrendReport is the response payload for the trend endpoint: the ordered
// series of readings inside the window plus the percentage change of each
// pollutant between the first and last reading.
type TrendReport struct {
	Location    string         `json:"location"`
	Timeframe   Timeframe      `json:"timeframe"`
	PM25Change  *float64       `json:"pm25_change"`
	PM10Change  *float64       `json:"pm10_change"`
	OzoneChange *float64       `json:"ozone_change"`
	Direction   TrendDirection `json:"trend_direction"`
	Series      []*Reading     `json:"series"`
}

// PercentChange computes the relative change between two AQI values,
// rounded to two decimals. Returns nil when either endpoint is missing
// or zero: a zero AQI reading marks absent data, not clean air.
func PercentChange(start, end *int) *float64 {
	if start == nil || end == nil || *start == 0 || *end == 0 {
		return nil
	}

	change := math.Round(float64(*end-*start)/float64(*start)*100*100) / 100
	return &change
}

// DirectionOf classifies a set of pollutant changes: improving when every
// known change is negative, worsening when every known change is positive,
// mixed otherwise. A window with no computable change is mixed.
func DirectionOf(changes ...*float64) TrendDirection {
	known := 0
	negative := 0
	positive := 0

	for _, c := range changes {
		if c == nil {
			continue
		}
		known++
		if *c < 0 {
			negative++
		}
		if *c > 0 {
			positive++
		}
	}

	switch {
	case known > 0 && negative == known:
		return TrendImproving
	case known > 0 && positive == known:
		return TrendWorsening
	default:
		return TrendMixed
	}
}
