package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-reading-by-id.sql
var getReadingByIDSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-readings-export.sql
var getReadingsExportSQL string

//go:embed sql/get-readings-page.sql
var getReadingsPageSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

//go:embed sql/get-latest-reading.sql
var getLatestReadingSQL string

//go:embed sql/get-readings-between.sql
var getReadingsBetweenSQL string

//go:embed sql/update-reading.sql
var updateReadingSQL string

//go:embed sql/delete-reading.sql
var deleteReadingSQL string

type sqliteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository expects the schema from internal/migrate to be applied.
func NewSQLiteRepository(db *sql.DB) WeatherRepository {
	return &sqliteRepository{db: db, now: time.Now}
}

func (r *sqliteRepository) Create(ctx context.Context, in types.ReadingInput) (types.Reading, error) {
	in = in.Normalize()
	now := r.now().UTC().Truncate(time.Millisecond)
	rec := fromInput(uuid.NewString(), 0, in, now, now)

	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rec.ID,
		rec.City,
		nullString(rec.TimestampUTC),
		nullFloat(rec.TemperatureC),
		nullFloat(rec.HumidityPct),
		nullFloat(rec.WindSpeedKmh),
		nullString(rec.ConditionText),
		nullFloat(rec.RainProbabilityPct),
		types.FormatTimestamp(rec.CreatedAt),
		types.FormatTimestamp(rec.UpdatedAt),
	)
	if err != nil {
		return types.Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	return rec, nil
}

func (r *sqliteRepository) FindAll(ctx context.Context) ([]types.Reading, error) {
	return r.query(ctx, "readings", getReadingsSQL)
}

func (r *sqliteRepository) FindForExport(ctx context.Context) ([]types.Reading, error) {
	return r.query(ctx, "export readings", getReadingsExportSQL)
}

func (r *sqliteRepository) FindByID(ctx context.Context, id string) (types.Reading, error) {
	return r.queryOne(ctx, getReadingByIDSQL, id)
}

func (r *sqliteRepository) Update(ctx context.Context, id string, in types.ReadingInput) (types.Reading, error) {
	in = in.Normalize()
	now := r.now().UTC().Truncate(time.Millisecond)

	res, err := r.db.ExecContext(ctx, updateReadingSQL,
		in.City,
		nullString(in.TimestampUTC),
		nullFloat(in.TemperatureC),
		nullFloat(in.HumidityPct),
		nullFloat(in.WindSpeedKmh),
		nullString(in.ConditionText),
		nullFloat(in.RainProbabilityPct),
		types.FormatTimestamp(now),
		id,
	)
	if err != nil {
		return types.Reading{}, fmt.Errorf("update reading %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Reading{}, fmt.Errorf("update reading %q: %w", id, err)
	}
	if n == 0 {
		return types.Reading{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *sqliteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteReadingSQL, id)
	if err != nil {
		return fmt.Errorf("delete reading %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reading %q: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) Latest(ctx context.Context) (types.Reading, error) {
	return r.queryOne(ctx, getLatestReadingSQL)
}

func (r *sqliteRepository) Page(ctx context.Context, page, limit int) ([]types.Reading, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, getReadingsCountSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}
	items, err := r.query(ctx, "readings page", getReadingsPageSQL, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *sqliteRepository) FindBetween(ctx context.Context, from, to time.Time) ([]types.Reading, error) {
	return r.query(ctx, "readings between", getReadingsBetweenSQL,
		types.FormatTimestamp(from), types.FormatTimestamp(to))
}

func (r *sqliteRepository) query(ctx context.Context, what, query string, args ...any) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close rows", "query", what, "error", err)
		}
	}()

	out := []types.Reading{}
	for rows.Next() {
		rec, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqliteRepository) queryOne(ctx context.Context, query string, args ...any) (types.Reading, error) {
	rec, err := scanReading(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Reading{}, ErrNotFound
	}
	if err != nil {
		return types.Reading{}, fmt.Errorf("get reading: %w", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(s scanner) (types.Reading, error) {
	var (
		rec                   types.Reading
		ts, cond              sql.NullString
		temp, hum, wind, rain sql.NullFloat64
		createdAt, updatedAt  string
	)
	if err := s.Scan(&rec.ID, &rec.Version, &rec.City, &ts, &temp, &hum, &wind, &cond, &rain, &createdAt, &updatedAt); err != nil {
		return types.Reading{}, err
	}
	rec.TimestampUTC = ts.String
	rec.ConditionText = cond.String
	rec.TemperatureC = floatPtr(temp)
	rec.HumidityPct = floatPtr(hum)
	rec.WindSpeedKmh = floatPtr(wind)
	rec.RainProbabilityPct = floatPtr(rain)

	var err error
	if rec.CreatedAt, err = parseSystemTime(createdAt); err != nil {
		return types.Reading{}, err
	}
	if rec.UpdatedAt, err = parseSystemTime(updatedAt); err != nil {
		return types.Reading{}, err
	}
	return rec, nil
}

func parseSystemTime(s string) (time.Time, error) {
	t, ok := types.ParseTimestamp(s)
	if !ok {
		return time.Time{}, fmt.Errorf("parse system timestamp %q", s)
	}
	return t.UTC(), nil
}

func fromInput(id string, version int, in types.ReadingInput, createdAt, updatedAt time.Time) types.Reading {
	return types.Reading{
		ID:                 id,
		Version:            version,
		City:               in.City,
		TimestampUTC:       in.TimestampUTC,
		TemperatureC:       in.TemperatureC,
		HumidityPct:        in.HumidityPct,
		WindSpeedKmh:       in.WindSpeedKmh,
		ConditionText:      in.ConditionText,
		RainProbabilityPct: in.RainProbabilityPct,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
