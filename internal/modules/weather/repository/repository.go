package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// ErrNotFound is returned when no reading matches the requested id, or when
// the store is empty on Latest.
var ErrNotFound = errors.New("weather reading not found")

// WeatherRepository stores weather readings. List operations never return a
// nil slice.
type WeatherRepository interface {
	Create(ctx context.Context, in types.ReadingInput) (types.Reading, error)
	// FindAll returns every reading, newest createdAt first.
	FindAll(ctx context.Context) ([]types.Reading, error)
	// FindForExport returns every reading in insertion order.
	FindForExport(ctx context.Context) ([]types.Reading, error)
	FindByID(ctx context.Context, id string) (types.Reading, error)
	// Update replaces the payload fields, bumps Version and refreshes UpdatedAt.
	Update(ctx context.Context, id string, in types.ReadingInput) (types.Reading, error)
	Delete(ctx context.Context, id string) error
	Latest(ctx context.Context) (types.Reading, error)
	// Page returns one page (1-based) of the createdAt-descending history and
	// the total number of readings.
	Page(ctx context.Context, page, limit int) ([]types.Reading, int, error)
	// FindBetween returns readings whose timestamp_utc lies in [from, to),
	// oldest first.
	FindBetween(ctx context.Context, from, to time.Time) ([]types.Reading, error)
}

// offset is the number of rows before page. Pages past the int range are
// clamped so the result never wraps negative.
func offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt / limit * limit
	}
	return (page - 1) * limit
}
