package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ClaudineiMS/gdash/internal/migrate"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

func f(v float64) *float64 { return &v }

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if err := migrate.Run(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestRepo returns a repository whose clock advances one second per call.
func newTestRepo(t *testing.T) *sqliteRepository {
	t.Helper()
	clock := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	return &sqliteRepository{
		db: setupTestDB(t),
		now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
}

func mustCreate(t *testing.T, repo WeatherRepository, in types.ReadingInput) types.Reading {
	t.Helper()
	rec, err := repo.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%+v): %v", in, err)
	}
	return rec
}

func TestNewSQLiteRepository(t *testing.T) {
	if repo := NewSQLiteRepository(setupTestDB(t)); repo == nil {
		t.Fatal("NewSQLiteRepository returned nil")
	}
}

func TestCreate_andFindByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := mustCreate(t, repo, types.ReadingInput{
		City:               "Recife",
		TimestampUTC:       "2025-11-22T09:30:00-03:00",
		TemperatureC:       f(28.4),
		HumidityPct:        f(120),
		ConditionText:      "Clear sky",
		RainProbabilityPct: f(-5),
	})

	if created.ID == "" {
		t.Fatal("Create did not assign an id")
	}
	if created.Version != 0 {
		t.Errorf("Version = %d; want 0", created.Version)
	}
	if created.TimestampUTC != "2025-11-22T12:30:00.000Z" {
		t.Errorf("TimestampUTC = %q; want normalized UTC", created.TimestampUTC)
	}
	if *created.HumidityPct != 100 || *created.RainProbabilityPct != 0 {
		t.Errorf("percentages not clamped: %v %v", *created.HumidityPct, *created.RainProbabilityPct)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("createdAt %v != updatedAt %v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.City != "Recife" || *got.TemperatureC != 28.4 || got.ConditionText != "Clear sky" {
		t.Errorf("FindByID = %+v", got)
	}
	if got.WindSpeedKmh != nil {
		t.Errorf("WindSpeedKmh = %v; want nil", *got.WindSpeedKmh)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v; want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreate_keepsUnparseableTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	rec := mustCreate(t, repo, types.ReadingInput{City: "Natal", TimestampUTC: "yesterday"})
	got, err := repo.FindByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.TimestampUTC != "yesterday" {
		t.Errorf("TimestampUTC = %q; want verbatim", got.TimestampUTC)
	}
}

func TestFindByID_notFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestFindAll_newestFirst_andExportInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("FindAll on empty store = %v; want empty non-nil", empty)
	}

	for _, city := range []string{"A", "B", "C"} {
		mustCreate(t, repo, types.ReadingInput{City: city})
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if got := cities(all); got != "CBA" {
		t.Errorf("FindAll order = %s; want CBA", got)
	}

	exported, err := repo.FindForExport(ctx)
	if err != nil {
		t.Fatalf("FindForExport: %v", err)
	}
	if got := cities(exported); got != "ABC" {
		t.Errorf("FindForExport order = %s; want ABC", got)
	}
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	rec := mustCreate(t, repo, types.ReadingInput{City: "Olinda", TemperatureC: f(20), ConditionText: "Rain"})

	updated, err := repo.Update(ctx, rec.ID, types.ReadingInput{City: "Olinda", TemperatureC: f(22.5)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("Version = %d; want 1", updated.Version)
	}
	if *updated.TemperatureC != 22.5 || updated.ConditionText != "" {
		t.Errorf("Update did not replace fields: %+v", updated)
	}
	if !updated.UpdatedAt.After(rec.UpdatedAt) {
		t.Errorf("UpdatedAt %v not after %v", updated.UpdatedAt, rec.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", rec.CreatedAt, updated.CreatedAt)
	}

	if _, err := repo.Update(ctx, "missing", types.ReadingInput{City: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) err = %v; want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	rec := mustCreate(t, repo, types.ReadingInput{City: "Maceió"})

	if err := repo.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID after delete err = %v; want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v; want ErrNotFound", err)
	}
}

func TestLatest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest on empty store err = %v; want ErrNotFound", err)
	}

	mustCreate(t, repo, types.ReadingInput{City: "old"})
	mustCreate(t, repo, types.ReadingInput{City: "new"})

	got, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.City != "new" {
		t.Errorf("Latest city = %q; want new", got.City)
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		page, limit, want int
	}{
		{page: 1, limit: 10, want: 0},
		{page: 3, limit: 10, want: 20},
		{page: 0, limit: 10, want: 0},
		{page: -4, limit: 10, want: 0},
		{page: 5, limit: 0, want: 0},
		{page: math.MaxInt, limit: 10, want: math.MaxInt / 10 * 10},
		{page: math.MaxInt, limit: 1, want: math.MaxInt - 1},
	}
	for _, tt := range tests {
		if got := offset(tt.page, tt.limit); got != tt.want {
			t.Errorf("offset(%d, %d) = %d; want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestPage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, city := range []string{"a", "b", "c", "d", "e"} {
		mustCreate(t, repo, types.ReadingInput{City: city})
	}

	tests := []struct {
		page, limit int
		want        string
	}{
		{page: 1, limit: 2, want: "ed"},
		{page: 2, limit: 2, want: "cb"},
		{page: 3, limit: 2, want: "a"},
		{page: 4, limit: 2, want: ""},
		{page: 0, limit: 3, want: "edc"},
		{page: math.MaxInt, limit: 10, want: ""},
	}
	for _, tt := range tests {
		items, total, err := repo.Page(ctx, tt.page, tt.limit)
		if err != nil {
			t.Fatalf("Page(%d,%d): %v", tt.page, tt.limit, err)
		}
		if total != 5 {
			t.Errorf("Page(%d,%d) total = %d; want 5", tt.page, tt.limit, total)
		}
		if got := cities(items); got != tt.want {
			t.Errorf("Page(%d,%d) = %q; want %q", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestFindBetween(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, types.ReadingInput{City: "late", TimestampUTC: "2025-11-22T23:59:59.999Z"})
	mustCreate(t, repo, types.ReadingInput{City: "before", TimestampUTC: "2025-11-21T23:59:59.999Z"})
	mustCreate(t, repo, types.ReadingInput{City: "early", TimestampUTC: "2025-11-22T00:00:00Z"})
	mustCreate(t, repo, types.ReadingInput{City: "after", TimestampUTC: "2025-11-23T00:00:00.000Z"})
	mustCreate(t, repo, types.ReadingInput{City: "none"})

	from := time.Date(2025, 11, 22, 0, 0, 0, 0, time.UTC)
	got, err := repo.FindBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("FindBetween: %v", err)
	}
	if len(got) != 2 || got[0].City != "early" || got[1].City != "late" {
		t.Errorf("FindBetween = %v; want [early late]", got)
	}
}

func cities(rs []types.Reading) string {
	var s string
	for _, r := range rs {
		s += r.City
	}
	return s
}
