package aggregate

import (
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// Insights summarizes a window of readings for the dashboard header.
type Insights struct {
	From              string   `json:"from"`
	To                string   `json:"to"`
	Count             int      `json:"count"`
	MinTemperatureC   *float64 `json:"minTemperatureC"`
	MaxTemperatureC   *float64 `json:"maxTemperatureC"`
	AvgTemperatureC   *float64 `json:"avgTemperatureC"`
	AvgHumidityPct    *float64 `json:"avgHumidityPct"`
	AvgWindSpeedKmh   *float64 `json:"avgWindSpeedKmh"`
	AvgRainChancePct  *float64 `json:"avgRainProbabilityPct"`
	DominantCondition string   `json:"dominantCondition,omitempty"`
	WarmestHour       *int     `json:"warmestHour"`
	WarmestHourLabel  string   `json:"warmestHourLabel,omitempty"`
}

type acc struct {
	sum   float64
	count int
}

func (a *acc) add(v *float64) {
	if v == nil {
		return
	}
	a.sum += *v
	a.count++
}

func (a acc) mean() *float64 { return Mean(a.sum, a.count) }

// Summarize computes statistics over readings taken in [from, to). The
// warmest hour is the local hour (in loc) with the highest mean temperature;
// the earlier hour wins a tie.
func Summarize(readings []types.Reading, from, to time.Time, loc *time.Location) Insights {
	out := Insights{
		From:  types.FormatTimestamp(from),
		To:    types.FormatTimestamp(to),
		Count: len(readings),
	}

	var temp, hum, wind, rain acc
	var minT, maxT *float64
	labels := make([]string, 0, len(readings))
	for _, r := range readings {
		temp.add(r.TemperatureC)
		hum.add(r.HumidityPct)
		wind.add(r.WindSpeedKmh)
		rain.add(r.RainProbabilityPct)
		if t := r.TemperatureC; t != nil {
			if minT == nil || *t < *minT {
				v := *t
				minT = &v
			}
			if maxT == nil || *t > *maxT {
				v := *t
				maxT = &v
			}
		}
		if r.ConditionText != "" {
			labels = append(labels, r.ConditionText)
		}
	}

	out.MinTemperatureC = minT
	out.MaxTemperatureC = maxT
	out.AvgTemperatureC = temp.mean()
	out.AvgHumidityPct = hum.mean()
	out.AvgWindSpeedKmh = wind.mean()
	out.AvgRainChancePct = rain.mean()
	out.DominantCondition = Mode(labels)

	hours, _ := ByHour(readings, loc, Series{Fields: []Field{Temperature}})
	var best *HourlySummary
	for i := range hours {
		v := hours[i].Value(Temperature.Name)
		if v == nil {
			continue
		}
		if best == nil || *v > *best.Value(Temperature.Name) {
			best = &hours[i]
		}
	}
	if best != nil {
		h := best.Hour
		out.WarmestHour = &h
		out.WarmestHourLabel = best.Label
	}
	return out
}
