package controller

import (
	"net/http"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/repository"
)

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options carries the presentation defaults taken from config.
type Options struct {
	// Location buckets hours and resolves days when a request has no tz.
	Location        *time.Location
	HistoryPageSize int
}

type weatherControllerImpl struct {
	repository repository.WeatherRepository
	location   *time.Location
	pageSize   int
	now        func() time.Time
}

func NewWeatherController(repository repository.WeatherRepository, opts Options) WeatherController {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	pageSize := opts.HistoryPageSize
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return &weatherControllerImpl{
		repository: repository,
		location:   loc,
		pageSize:   pageSize,
		now:        time.Now,
	}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/latest", c.handleLatestPartial)
	mux.HandleFunc("GET /partials/history", c.handleHistoryPartial)
	mux.HandleFunc("GET /partials/hourly", c.handleHourlyPartial)

	mux.HandleFunc("POST /api/weather", c.handleCreate)
	mux.HandleFunc("POST /api/weather/logs", c.handleCreate)
	mux.HandleFunc("GET /api/weather", c.handleList)
	mux.HandleFunc("GET /api/weather/latest", c.handleLatest)
	mux.HandleFunc("GET /api/weather/history", c.handleHistory)
	mux.HandleFunc("GET /api/weather/day", c.handleDay)
	mux.HandleFunc("GET /api/weather/hourly", c.handleHourly)
	mux.HandleFunc("GET /api/weather/insights", c.handleInsights)
	mux.HandleFunc("GET /api/weather/export.csv", c.handleExportCSV)
	mux.HandleFunc("GET /api/weather/export.xlsx", c.handleExportXLSX)
	mux.HandleFunc("GET /api/weather/{id}", c.handleGet)
	mux.HandleFunc("PUT /api/weather/{id}", c.handleUpdate)
	mux.HandleFunc("DELETE /api/weather/{id}", c.handleDelete)
}
