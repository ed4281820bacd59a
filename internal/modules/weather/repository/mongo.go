package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

type mongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoRepository stores readings as documents in coll.
func NewMongoRepository(coll *mongo.Collection) WeatherRepository {
	return &mongoRepository{coll: coll, now: time.Now}
}

// EnsureIndexes creates the createdAt and timestamp_utc indexes used by the
// history and day queries.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp_utc", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *mongoRepository) Create(ctx context.Context, in types.ReadingInput) (types.Reading, error) {
	in = in.Normalize()
	now := r.now().UTC().Truncate(time.Millisecond)
	rec := fromInput(uuid.NewString(), 0, in, now, now)

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return types.Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	return rec, nil
}

func (r *mongoRepository) FindAll(ctx context.Context) ([]types.Reading, error) {
	return r.find(ctx, "readings", bson.D{}, options.Find().SetSort(newestFirst))
}

func (r *mongoRepository) FindForExport(ctx context.Context) ([]types.Reading, error) {
	return r.find(ctx, "export readings", bson.D{}, options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}}))
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (types.Reading, error) {
	var rec types.Reading
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Reading{}, ErrNotFound
	}
	if err != nil {
		return types.Reading{}, fmt.Errorf("get reading %q: %w", id, err)
	}
	return normalizeDecoded(rec), nil
}

func (r *mongoRepository) Update(ctx context.Context, id string, in types.ReadingInput) (types.Reading, error) {
	in = in.Normalize()
	now := r.now().UTC().Truncate(time.Millisecond)

	set := bson.D{
		{Key: "city", Value: in.City},
		{Key: "updatedAt", Value: now},
	}
	unset := bson.D{}
	setOrUnset := func(key string, v any, present bool) {
		if present {
			set = append(set, bson.E{Key: key, Value: v})
		} else {
			unset = append(unset, bson.E{Key: key, Value: ""})
		}
	}
	setOrUnset("timestamp_utc", in.TimestampUTC, in.TimestampUTC != "")
	setOrUnset("condition_text", in.ConditionText, in.ConditionText != "")
	setOrUnset("temperature_c", deref(in.TemperatureC), in.TemperatureC != nil)
	setOrUnset("humidity_pct", deref(in.HumidityPct), in.HumidityPct != nil)
	setOrUnset("wind_speed_kmh", deref(in.WindSpeedKmh), in.WindSpeedKmh != nil)
	setOrUnset("rain_probability_pct", deref(in.RainProbabilityPct), in.RainProbabilityPct != nil)

	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$inc", Value: bson.D{{Key: "__v", Value: 1}}},
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	var rec types.Reading
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Reading{}, ErrNotFound
	}
	if err != nil {
		return types.Reading{}, fmt.Errorf("update reading %q: %w", id, err)
	}
	return normalizeDecoded(rec), nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete reading %q: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) Latest(ctx context.Context) (types.Reading, error) {
	var rec types.Reading
	err := r.coll.FindOne(ctx, bson.D{}, options.FindOne().SetSort(newestFirst)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Reading{}, ErrNotFound
	}
	if err != nil {
		return types.Reading{}, fmt.Errorf("get latest reading: %w", err)
	}
	return normalizeDecoded(rec), nil
}

func (r *mongoRepository) Page(ctx context.Context, page, limit int) ([]types.Reading, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(offset(page, limit))).
		SetLimit(int64(limit))
	items, err := r.find(ctx, "readings page", bson.D{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (r *mongoRepository) FindBetween(ctx context.Context, from, to time.Time) ([]types.Reading, error) {
	filter := bson.D{{Key: "timestamp_utc", Value: bson.D{
		{Key: "$gte", Value: types.FormatTimestamp(from)},
		{Key: "$lt", Value: types.FormatTimestamp(to)},
	}}}
	return r.find(ctx, "readings between", filter, options.Find().SetSort(bson.D{{Key: "timestamp_utc", Value: 1}}))
}

func (r *mongoRepository) find(ctx context.Context, what string, filter any, opts *options.FindOptions) ([]types.Reading, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			slog.Error("close cursor", "query", what, "error", err)
		}
	}()

	out := []types.Reading{}
	for cur.Next(ctx) {
		var rec types.Reading
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", what, err)
		}
		out = append(out, normalizeDecoded(rec))
	}
	return out, cur.Err()
}

// normalizeDecoded puts BSON datetimes back into UTC; the driver decodes
// them in the local zone.
func normalizeDecoded(rec types.Reading) types.Reading {
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
