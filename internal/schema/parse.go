package schema

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var dateTimeFormats = []string{
	"2006-01-02",
	"01-02-2006",
	"01/02/2006",
	"01/02/06",
	"1/2/06",
	"2006/01/02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	time.RFC3339Nano,
}

// ParseNumber parses a finite real number.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDateTime parses s under the accepted date and date-time layouts.
// Values without a zone are read as UTC.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	for _, layout := range dateTimeFormats {
		if v, err := time.Parse(layout, s); err == nil {
			return v, true
		}
	}

	return time.Time{}, false
}

// EpochSeconds returns t as fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
