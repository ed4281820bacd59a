package views

import (
	"math"
	"strconv"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/aggregate"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

const noValue = "n/a"

// ReadingRow is a reading with every field preformatted for display.
type ReadingRow struct {
	ID          string
	City        string
	Time        string
	Temperature string
	Humidity    string
	Wind        string
	Condition   string
	Rain        string
}

// NewReadingRow formats r for display in loc.
func NewReadingRow(r types.Reading, loc *time.Location) ReadingRow {
	if loc == nil {
		loc = time.UTC
	}
	row := ReadingRow{
		ID:          r.ID,
		City:        r.City,
		Time:        noValue,
		Temperature: formatFloat(r.TemperatureC, " °C"),
		Humidity:    formatFloat(r.HumidityPct, "%"),
		Wind:        formatFloat(r.WindSpeedKmh, " km/h"),
		Condition:   r.ConditionText,
		Rain:        formatFloat(r.RainProbabilityPct, "%"),
	}
	if ts, ok := r.Time(); ok {
		row.Time = ts.In(loc).Format("02/01/2006 15:04")
	} else if r.TimestampUTC != "" {
		row.Time = r.TimestampUTC
	}
	if row.Condition == "" {
		row.Condition = noValue
	}
	return row
}

func formatFloat(v *float64, unit string) string {
	if v == nil {
		return noValue
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + unit
}

// LatestData is the view model for the latest-reading cards. Reading is nil
// when nothing has been stored yet.
type LatestData struct {
	Reading *ReadingRow
}

// PaginationItem is one entry in the pagination bar: either a page number or an ellipsis.
type PaginationItem struct {
	Page     int
	Ellipsis bool
}

// HistoryData is the view model for the history partial.
type HistoryData struct {
	Rows        []ReadingRow
	Total       int
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	PageItems   []PaginationItem
}

// HourRow is one bar of the hourly chart.
type HourRow struct {
	Label       string
	Temperature string
	Wind        string
	Condition   string
	Samples     int
	// BarPct scales the temperature bar between the day's coldest and
	// warmest hour.
	BarPct int
}

type HourlyData struct {
	Date     string
	TZ       string
	Series   string
	Hours    []HourRow
	Skipped  int
	Insights *aggregate.Insights
}

// NewHourRows converts aggregated summaries into chart rows.
func NewHourRows(summaries []aggregate.HourlySummary) []HourRow {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range summaries {
		if v := s.Value(aggregate.Temperature.Name); v != nil {
			lo, hi = math.Min(lo, *v), math.Max(hi, *v)
		}
	}

	rows := make([]HourRow, 0, len(summaries))
	for _, s := range summaries {
		row := HourRow{
			Label:       s.Label,
			Temperature: formatFloat(s.Value(aggregate.Temperature.Name), " °C"),
			Wind:        formatFloat(s.Value(aggregate.Wind.Name), " km/h"),
			Condition:   s.Category,
			Samples:     s.Samples,
		}
		if row.Condition == "" {
			row.Condition = noValue
		}
		if v := s.Value(aggregate.Temperature.Name); v != nil {
			row.BarPct = 100
			if hi > lo {
				row.BarPct = 10 + int(math.Round(90*(*v-lo)/(hi-lo)))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// DashboardData is the full page: every partial rendered inline.
type DashboardData struct {
	Latest  LatestData
	History HistoryData
	Hourly  HourlyData
}
