package controller

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/views"
)

func Test_parseLimit(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr string
	}{
		{name: "no limit returns default", query: "", want: 10},
		{name: "valid limit", query: "?limit=50", want: 50},
		{name: "limit 1 allowed", query: "?limit=1", want: 1},
		{name: "limit 100 allowed", query: "?limit=100", want: 100},
		{name: "non-integer", query: "?limit=abc", wantErr: "invalid 'limit' (expected integer)"},
		{name: "zero", query: "?limit=0", wantErr: "'limit' must be > 0"},
		{name: "negative", query: "?limit=-5", wantErr: "'limit' must be > 0"},
		{name: "over 100", query: "?limit=101", wantErr: "'limit' must be <= 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil)
			got, err := parseLimit(req, 10)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("parseLimit() err = %v; want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLimit() err = %v; want nil", err)
			}
			if got != tt.want {
				t.Errorf("parseLimit() = %d; want %d", got, tt.want)
			}
		})
	}
}

func Test_parseHistoryPage(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?page=5", 5},
		{"?page=1", 1},
		{"?page=abc", 1},
		{"?page=0", 1},
		{"?page=-3", 1},
		{"?page=9223372036854775807", maxHistoryPage},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil)
		if got := parseHistoryPage(req); got != tt.want {
			t.Errorf("parseHistoryPage(%q) = %d; want %d", tt.query, got, tt.want)
		}
	}
}

func Test_parseLocation(t *testing.T) {
	def := time.FixedZone("DEF", 3600)

	t.Run("empty uses default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/day", nil)
		loc, err := parseLocation(req, def)
		if err != nil || loc != def {
			t.Fatalf("parseLocation() = %v, %v; want default", loc, err)
		}
	})
	t.Run("UTC by name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/day?tz=UTC", nil)
		loc, err := parseLocation(req, def)
		if err != nil || loc.String() != "UTC" {
			t.Fatalf("parseLocation() = %v, %v; want UTC", loc, err)
		}
	})
	t.Run("unknown zone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/day?tz=Mars/Olympus", nil)
		_, err := parseLocation(req, def)
		if err == nil || !strings.Contains(err.Error(), "invalid 'tz'") {
			t.Fatalf("parseLocation() err = %v; want invalid 'tz'", err)
		}
	})
}

func Test_parseDay(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	now := time.Date(2025, 11, 22, 1, 0, 0, 0, time.UTC) // 21 Nov 22:00 in BRT

	t.Run("default is today in loc", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/day", nil)
		from, to, err := parseDay(req, brt, now)
		if err != nil {
			t.Fatalf("parseDay() err = %v", err)
		}
		wantFrom := time.Date(2025, 11, 21, 0, 0, 0, 0, brt)
		if !from.Equal(wantFrom) || !to.Equal(wantFrom.AddDate(0, 0, 1)) {
			t.Errorf("parseDay() = %v..%v; want %v..+1d", from, to, wantFrom)
		}
	})
	t.Run("explicit date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/day?date=2025-01-31", nil)
		from, to, err := parseDay(req, brt, now)
		if err != nil {
			t.Fatalf("parseDay() err = %v", err)
		}
		if got := from.UTC().Format(time.RFC3339); got != "2025-01-31T03:00:00Z" {
			t.Errorf("from = %s", got)
		}
		if got := to.UTC().Format(time.RFC3339); got != "2025-02-01T03:00:00Z" {
			t.Errorf("to = %s", got)
		}
	})
	t.Run("invalid date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/day?date=31/01/2025", nil)
		if _, _, err := parseDay(req, brt, now); err == nil {
			t.Fatal("parseDay() err = nil; want error")
		}
	})
}

func Test_parseSeries(t *testing.T) {
	for _, tt := range []struct {
		query, want string
		fields      int
	}{
		{"", "condition", 1},
		{"?series=condition", "condition", 1},
		{"?series=wind", "wind", 2},
	} {
		req := httptest.NewRequest(http.MethodGet, "/hourly"+tt.query, nil)
		name, series, err := parseSeries(req)
		if err != nil || name != tt.want || len(series.Fields) != tt.fields {
			t.Errorf("parseSeries(%q) = %q, %d fields, %v", tt.query, name, len(series.Fields), err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/hourly?series=pressure", nil)
	if _, _, err := parseSeries(req); err == nil {
		t.Error("parseSeries(pressure) err = nil; want error")
	}
}

func Test_buildHistoryPageItems(t *testing.T) {
	page := func(n int) views.PaginationItem { return views.PaginationItem{Page: n} }
	gap := views.PaginationItem{Ellipsis: true}

	tests := []struct {
		name        string
		total, curr int
		want        []views.PaginationItem
	}{
		{name: "no pages", total: 0, curr: 1, want: nil},
		{name: "single page", total: 1, curr: 1, want: []views.PaginationItem{page(1)}},
		{name: "all visible", total: 5, curr: 3, want: []views.PaginationItem{page(1), page(2), page(3), page(4), page(5)}},
		{name: "gap after window", total: 10, curr: 1, want: []views.PaginationItem{page(1), page(2), page(3), gap, page(10)}},
		{name: "gaps both sides", total: 10, curr: 5, want: []views.PaginationItem{page(1), gap, page(3), page(4), page(5), page(6), page(7), gap, page(10)}},
		{name: "gap before window", total: 10, curr: 10, want: []views.PaginationItem{page(1), gap, page(8), page(9), page(10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildHistoryPageItems(tt.total, tt.curr)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildHistoryPageItems(%d, %d) = %v; want %v", tt.total, tt.curr, got, tt.want)
			}
		})
	}
}
