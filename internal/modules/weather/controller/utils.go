package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/aggregate"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/views"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	// maxHistoryPage keeps (page-1)*limit inside int for every allowed limit.
	maxHistoryPage = math.MaxInt / maxPageSize
	maxBodyBytes   = 1 << 20
	dateLayout     = "2006-01-02"

	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var seriesByName = map[string]aggregate.Series{
	"condition": aggregate.TemperatureCondition,
	"wind":      aggregate.TemperatureWind,
}

// parseHistoryPage returns the 1-based page number from the request (default 1, min 1).
func parseHistoryPage(r *http.Request) int {
	s := r.URL.Query().Get("page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxHistoryPage)
}

func parseLimit(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > maxPageSize {
		return 0, fmt.Errorf("'limit' must be <= %d", maxPageSize)
	}
	return n, nil
}

// parseLocation resolves the optional IANA 'tz' parameter.
func parseLocation(r *http.Request, def *time.Location) (*time.Location, error) {
	name := strings.TrimSpace(r.URL.Query().Get("tz"))
	if name == "" {
		return def, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid 'tz' %q (expected IANA zone name)", name)
	}
	return loc, nil
}

// parseDay resolves the optional 'date' parameter to [midnight, next
// midnight) in loc. An empty date means today in loc.
func parseDay(r *http.Request, loc *time.Location, now time.Time) (from, to time.Time, err error) {
	s := strings.TrimSpace(r.URL.Query().Get("date"))
	if s == "" {
		y, m, d := now.In(loc).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, loc)
	} else {
		from, err = time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'date' (expected YYYY-MM-DD)")
		}
	}
	return from, from.AddDate(0, 0, 1), nil
}

func parseSeries(r *http.Request) (string, aggregate.Series, error) {
	name := r.URL.Query().Get("series")
	if name == "" {
		name = "condition"
	}
	s, ok := seriesByName[name]
	if !ok {
		return "", aggregate.Series{}, fmt.Errorf("invalid 'series' %q (allowed: condition, wind)", name)
	}
	return name, s, nil
}

// decodeInput only rejects malformed JSON, a missing city and oversized
// strings. Out-of-range percentages are clamped, not refused.
func decodeInput(r *http.Request) (types.ReadingInput, error) {
	var in types.ReadingInput
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		return types.ReadingInput{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := in.Validate(); err != nil {
		return types.ReadingInput{}, err
	}
	return in.Normalize(), nil
}

// buildHistoryPageItems returns page numbers and ellipsis for the pagination bar.
func buildHistoryPageItems(totalPages, currentPage int) []views.PaginationItem {
	if totalPages <= 0 {
		return nil
	}
	const window = 2
	show := map[int]bool{1: true, totalPages: true}
	for p := currentPage - window; p <= currentPage+window; p++ {
		if p >= 1 && p <= totalPages {
			show[p] = true
		}
	}
	var items []views.PaginationItem
	prev := 0
	for p := 1; p <= totalPages; p++ {
		if !show[p] {
			continue
		}
		if prev != 0 && p > prev+1 {
			items = append(items, views.PaginationItem{Ellipsis: true})
		}
		items = append(items, views.PaginationItem{Page: p})
		prev = p
	}
	return items
}
