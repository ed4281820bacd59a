package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the canonical text form of timestamp_utc. Fixed
// millisecond precision keeps lexical order equal to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Reading is a persisted weather reading. Numeric fields are pointers so that
// "absent" stays distinct from zero.
type Reading struct {
	ID                 string    `json:"id" bson:"_id"`
	Version            int       `json:"version" bson:"__v"`
	City               string    `json:"city" bson:"city"`
	TimestampUTC       string    `json:"timestamp_utc,omitempty" bson:"timestamp_utc,omitempty"`
	TemperatureC       *float64  `json:"temperature_c" bson:"temperature_c,omitempty"`
	HumidityPct        *float64  `json:"humidity_pct" bson:"humidity_pct,omitempty"`
	WindSpeedKmh       *float64  `json:"wind_speed_kmh" bson:"wind_speed_kmh,omitempty"`
	ConditionText      string    `json:"condition_text,omitempty" bson:"condition_text,omitempty"`
	RainProbabilityPct *float64  `json:"rain_probability_pct" bson:"rain_probability_pct,omitempty"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ReadingInput is the payload accepted on create/update and over MQTT.
type ReadingInput struct {
	City               string   `json:"city" validate:"required,max=200"`
	TimestampUTC       string   `json:"timestamp_utc,omitempty" validate:"max=64"`
	TemperatureC       *float64 `json:"temperature_c,omitempty"`
	HumidityPct        *float64 `json:"humidity_pct,omitempty"`
	WindSpeedKmh       *float64 `json:"wind_speed_kmh,omitempty"`
	ConditionText      string   `json:"condition_text,omitempty" validate:"max=200"`
	RainProbabilityPct *float64 `json:"rain_probability_pct,omitempty"`
}

// UnmarshalJSON accepts numeric fields as JSON numbers or numeric strings.
// null and "" leave a field absent.
func (in *ReadingInput) UnmarshalJSON(data []byte) error {
	type plain ReadingInput
	var aux struct {
		plain
		TemperatureC       json.RawMessage `json:"temperature_c"`
		HumidityPct        json.RawMessage `json:"humidity_pct"`
		WindSpeedKmh       json.RawMessage `json:"wind_speed_kmh"`
		RainProbabilityPct json.RawMessage `json:"rain_probability_pct"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	out := ReadingInput(aux.plain)
	var err error
	if out.TemperatureC, err = looseFloat("temperature_c", aux.TemperatureC); err != nil {
		return err
	}
	if out.HumidityPct, err = looseFloat("humidity_pct", aux.HumidityPct); err != nil {
		return err
	}
	if out.WindSpeedKmh, err = looseFloat("wind_speed_kmh", aux.WindSpeedKmh); err != nil {
		return err
	}
	if out.RainProbabilityPct, err = looseFloat("rain_probability_pct", aux.RainProbabilityPct); err != nil {
		return err
	}
	*in = out
	return nil
}

func looseFloat(field string, raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	switch x := v.(type) {
	case float64:
		return &x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%s must be a number, got %q", field, x)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("%s must be a number", field)
	}
}

// Normalize clamps percentages into [0,100] and canonicalizes the
// timestamp. It does not fill a missing timestamp; ingestion decides that.
func (in ReadingInput) Normalize() ReadingInput {
	in.TimestampUTC = NormalizeTimestamp(in.TimestampUTC)
	in.HumidityPct = clampPct(in.HumidityPct)
	in.RainProbabilityPct = clampPct(in.RainProbabilityPct)
	return in
}

func clampPct(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := min(max(*v, 0), 100)
	return &c
}

// Time parses TimestampUTC. ok is false when it is absent or malformed.
func (r Reading) Time() (t time.Time, ok bool) {
	return ParseTimestamp(r.TimestampUTC)
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeTimestamp rewrites a parseable timestamp into TimestampLayout (UTC)
// and leaves anything else untouched.
func NormalizeTimestamp(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return FormatTimestamp(t)
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Page is one slice of the createdAt-descending history.
type Page struct {
	Items      []Reading `json:"items"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
}

func NewPage(items []Reading, page, limit, total int) Page {
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	if items == nil {
		items = []Reading{}
	}
	return Page{Items: items, Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
