// Package domain holds the sensor telemetry types: the query window built
// from user-editable date and time-of-day fields, and the measured samples
// normalized for charting.
package domain

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// Granularity is the temporal bucket size for aggregated telemetry.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
)

// ParseGranularity validates a raw granularity string.
func ParseGranularity(raw string) (Granularity, error) {
	switch Granularity(strings.TrimSpace(raw)) {
	case GranularityHour:
		return GranularityHour, nil
	case GranularityDay:
		return GranularityDay, nil
	default:
		return "", fmt.Errorf("granularity must be hour or day, got %q", raw)
	}
}

// ErrRangeInvalid means the end instant precedes the start instant. The
// window is rejected before any request is dispatched.
var ErrRangeInvalid = errors.New("end of range precedes start")

// Known station identifiers offered by default.
var DefaultStations = []string{"SMART188", "SMART189"}

// QueryWindow is a validated telemetry query: one station, an ordered pair of
// absolute instants, and an aggregation granularity.
type QueryWindow struct {
	Station     string
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// BuildWindow combines independently edited date and time-of-day fields into
// absolute instants in loc. An empty start time defaults to 00:00 and an
// empty end time to 23:59, matching the dashboard's form defaults. A window
// whose end precedes its start is ErrRangeInvalid.
func BuildWindow(station, startDate, startTime, endDate, endTime, granularity string, loc *time.Location) (QueryWindow, error) {
	station = strings.TrimSpace(station)
	if station == "" {
		return QueryWindow{}, errors.New("station is required")
	}
	gran, err := ParseGranularity(granularity)
	if err != nil {
		return QueryWindow{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	start, err := combine(startDate, startTime, "00:00", loc)
	if err != nil {
		return QueryWindow{}, fmt.Errorf("start: %w", err)
	}
	end, err := combine(endDate, endTime, "23:59", loc)
	if err != nil {
		return QueryWindow{}, fmt.Errorf("end: %w", err)
	}
	w := QueryWindow{Station: station, Start: start, End: end, Granularity: gran}
	if err := w.Validate(); err != nil {
		return QueryWindow{}, err
	}
	return w, nil
}

// combine parses "YYYY-MM-DD" plus "HH:MM" in loc; an empty time falls back
// to def.
func combine(date, tod, def string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return time.Time{}, errors.New("date is required")
	}
	if strings.TrimSpace(tod) == "" {
		tod = def
	}
	t, err := time.ParseInLocation(dateLayout+"T"+timeLayout, strings.TrimSpace(date)+"T"+strings.TrimSpace(tod), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q", date, tod)
	}
	return t, nil
}

// Validate enforces the ordering invariant.
func (w QueryWindow) Validate() error {
	if w.End.Before(w.Start) {
		return ErrRangeInvalid
	}
	return nil
}

// QueryParams encodes the window as the sensor endpoint's query string.
// Instants go out in UTC so the range is timezone-unambiguous upstream.
func (w QueryWindow) QueryParams() url.Values {
	v := url.Values{}
	v.Set("stationNames", w.Station)
	v.Set("startDate", w.Start.UTC().Format(time.RFC3339))
	v.Set("endDate", w.End.UTC().Format(time.RFC3339))
	v.Set("granularity", string(w.Granularity))
	return v
}

// RawSample is the wire shape of one measurement: every numeric field may be
// absent or null.
type RawSample struct {
	Timestamp   string   `json:"timestamp"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	O3          *float64 `json:"o3"`
	NO2         *float64 `json:"no2"`
	PM25        *float64 `json:"pm25"`
	PM10        *float64 `json:"pm10"`
}

// Sample is a chart-ready measurement: every field is a defined number,
// rounded to one decimal place, with absent or non-numeric values as 0.
type Sample struct {
	Timestamp   time.Time
	Temperature float64
	Humidity    float64
	Pressure    float64
	O3          float64
	NO2         float64
	PM25        float64
	PM10        float64
}

// Normalize converts a wire sample. An unparseable timestamp is reported; no
// numeric field ever comes back NaN, infinite, or undefined.
func (r RawSample) Normalize() (Sample, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		if ts, err = time.Parse(time.RFC3339Nano, r.Timestamp); err != nil {
			return Sample{}, fmt.Errorf("invalid timestamp %q", r.Timestamp)
		}
	}
	return Sample{
		Timestamp:   ts,
		Temperature: round1(r.Temperature),
		Humidity:    round1(r.Humidity),
		Pressure:    round1(r.Pressure),
		O3:          round1(r.O3),
		NO2:         round1(r.NO2),
		PM25:        round1(r.PM25),
		PM10:        round1(r.PM10),
	}, nil
}

// round1 coerces an optional reading to one decimal place, with 0 for
// missing or non-finite values.
func round1(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return math.Round(*v*10) / 10
}

// NormalizeAll converts a wire response, skipping samples whose timestamp is
// unusable rather than failing the whole set.
func NormalizeAll(raw []RawSample) []Sample {
	out := make([]Sample, 0, len(raw))
	for _, r := range raw {
		s, err := r.Normalize()
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}
