// Package export flattens weather readings into CSV text or an XLSX workbook.
package export

import (
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// EmptyCSVHeader is the whole CSV document when there is nothing to export.
const EmptyCSVHeader = "temperature,humidity,wind_speed,sky,created_at"

// Column maps one semantic field of a reading to its header and raw value.
// Value returns nil for an absent field.
type Column struct {
	Header string
	Value  func(r types.Reading) any
}

// DefaultColumns lists the exported fields in declaration order. The storage
// id, the revision counter and both system timestamps are never exported.
var DefaultColumns = []Column{
	{Header: "city", Value: func(r types.Reading) any { return stringValue(r.City) }},
	{Header: "timestamp_utc", Value: func(r types.Reading) any { return stringValue(r.TimestampUTC) }},
	{Header: "temperature_c", Value: func(r types.Reading) any { return floatValue(r.TemperatureC) }},
	{Header: "humidity_pct", Value: func(r types.Reading) any { return floatValue(r.HumidityPct) }},
	{Header: "wind_speed_kmh", Value: func(r types.Reading) any { return floatValue(r.WindSpeedKmh) }},
	{Header: "condition_text", Value: func(r types.Reading) any { return stringValue(r.ConditionText) }},
	{Header: "rain_probability_pct", Value: func(r types.Reading) any { return floatValue(r.RainProbabilityPct) }},
}

func headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// floatValue returns an untyped nil for a nil pointer so callers can switch
// on nil.
func floatValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}
