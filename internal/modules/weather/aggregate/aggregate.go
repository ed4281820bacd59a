// Package aggregate buckets a day's readings by local hour of day.
//
// Each bucket averages the numeric fields of a Series and takes the mode of
// its categorical field. Hours without any usable sample are omitted.
package aggregate

import (
	"math"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// Field extracts one numeric sample from a reading; nil means absent.
type Field struct {
	Name  string
	Value func(types.Reading) *float64
}

// Series names the numeric fields to average and the categorical field to
// vote on. Category may be nil.
type Series struct {
	Name     string
	Fields   []Field
	Category func(types.Reading) string
}

var (
	Temperature = Field{Name: "temperature", Value: func(r types.Reading) *float64 { return r.TemperatureC }}
	Wind        = Field{Name: "wind", Value: func(r types.Reading) *float64 { return r.WindSpeedKmh }}
	Humidity    = Field{Name: "humidity", Value: func(r types.Reading) *float64 { return r.HumidityPct }}
	RainChance  = Field{Name: "rain", Value: func(r types.Reading) *float64 { return r.RainProbabilityPct }}
)

func condition(r types.Reading) string { return r.ConditionText }

// TemperatureCondition drives the temperature chart with its sky label.
var TemperatureCondition = Series{
	Name:     "condition",
	Fields:   []Field{Temperature},
	Category: condition,
}

// TemperatureWind drives the temperature and wind chart.
var TemperatureWind = Series{
	Name:     "wind",
	Fields:   []Field{Temperature, Wind},
	Category: condition,
}

// HourlySummary is one non-empty hour. Values holds one entry per series
// field; a nil value means the hour had readings but none carried that
// field.
type HourlySummary struct {
	Hour     int                 `json:"hour"`
	Label    string              `json:"label"`
	Values   map[string]*float64 `json:"values"`
	Category string              `json:"category,omitempty"`
	Samples  int                 `json:"samples"`
}

// Value returns the averaged value for field, or nil.
func (s HourlySummary) Value(field string) *float64 {
	return s.Values[field]
}

type bucket struct {
	label   string
	samples int
	sums    []float64
	counts  []int
	labels  []string
}

// ByHour groups readings by their wall-clock hour in loc and summarizes each
// hour with at least one reading. Readings with a missing or unparseable
// timestamp are skipped and counted in skipped. A nil loc means UTC.
//
// Input order matters only for the bucket label (first reading seen) and for
// breaking ties between equally frequent categories (first label seen).
func ByHour(readings []types.Reading, loc *time.Location, series Series) (out []HourlySummary, skipped int) {
	if loc == nil {
		loc = time.UTC
	}

	var buckets [24]*bucket
	for _, r := range readings {
		ts, ok := r.Time()
		if !ok {
			skipped++
			continue
		}
		local := ts.In(loc)
		h := local.Hour()

		b := buckets[h]
		if b == nil {
			b = &bucket{
				label:  local.Format("15:04"),
				sums:   make([]float64, len(series.Fields)),
				counts: make([]int, len(series.Fields)),
			}
			buckets[h] = b
		}
		b.samples++

		for i, f := range series.Fields {
			v := f.Value(r)
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
				continue
			}
			b.sums[i] += *v
			b.counts[i]++
		}
		if series.Category != nil {
			if c := series.Category(r); c != "" {
				b.labels = append(b.labels, c)
			}
		}
	}

	out = make([]HourlySummary, 0, 24)
	// index order is hour order
	for h, b := range buckets {
		if b == nil {
			continue
		}
		s := HourlySummary{
			Hour:     h,
			Label:    b.label,
			Values:   make(map[string]*float64, len(series.Fields)),
			Category: Mode(b.labels),
			Samples:  b.samples,
		}
		for i, f := range series.Fields {
			s.Values[f.Name] = Mean(b.sums[i], b.counts[i])
		}
		out = append(out, s)
	}
	return out, skipped
}

// Mean returns sum/count rounded to two decimals, or nil for zero samples.
func Mean(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	v := Round2(sum / float64(count))
	return &v
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Mode returns the most frequent label. Among equally frequent labels the one
// seen first wins. An empty input yields "".
func Mode(labels []string) string {
	counts := make(map[string]int, len(labels))
	first := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, ok := first[l]; !ok {
			first[l] = i
		}
		counts[l]++
	}

	best, bestCount, bestFirst := "", 0, 0
	for l, c := range counts {
		if c > bestCount || (c == bestCount && first[l] < bestFirst) {
			best, bestCount, bestFirst = l, c, first[l]
		}
	}
	return best
}
