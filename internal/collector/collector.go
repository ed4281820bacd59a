package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// Publisher sends a reading to the ingestion topic.
type Publisher interface {
	PublishReading(in types.ReadingInput) error
}

// Source is the upstream weather API.
type Source interface {
	Geocode(ctx context.Context, name string) (Place, error)
	Current(ctx context.Context, p Place) (Current, error)
}

// Collector polls a Source for one city and publishes each observation.
type Collector struct {
	source    Source
	publisher Publisher
	city      string
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	place *Place

	scheduler *gocron.Scheduler
}

type Options struct {
	City     string
	Interval time.Duration
	// Timeout bounds a single collection run.
	Timeout time.Duration
}

func New(source Source, publisher Publisher, opts Options, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Collector{
		source:    source,
		publisher: publisher,
		city:      opts.City,
		interval:  opts.Interval,
		timeout:   opts.Timeout,
		logger:    logger,
		now:       time.Now,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// CollectOnce fetches the current weather and publishes it. The geocoded
// place is cached after the first successful lookup.
func (c *Collector) CollectOnce(ctx context.Context) (types.ReadingInput, error) {
	place, err := c.resolve(ctx)
	if err != nil {
		return types.ReadingInput{}, err
	}

	cur, err := c.source.Current(ctx, place)
	if err != nil {
		return types.ReadingInput{}, err
	}

	in := types.ReadingInput{
		City:               place.Name,
		TimestampUTC:       types.FormatTimestamp(c.now()),
		TemperatureC:       &cur.TemperatureC,
		HumidityPct:        cur.HumidityPct,
		WindSpeedKmh:       &cur.WindSpeedKmh,
		ConditionText:      ConditionText(cur.WeatherCode),
		RainProbabilityPct: cur.RainProbabilityPct,
	}.Normalize()

	if err := c.publisher.PublishReading(in); err != nil {
		return types.ReadingInput{}, fmt.Errorf("publish: %w", err)
	}
	return in, nil
}

func (c *Collector) resolve(ctx context.Context) (Place, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.place != nil {
		return *c.place, nil
	}
	p, err := c.source.Geocode(ctx, c.city)
	if err != nil {
		return Place{}, err
	}
	c.logger.Info("city resolved", "city", p.Name, "lat", p.Latitude, "lon", p.Longitude)
	c.place = &p
	return p, nil
}

func (c *Collector) run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	in, err := c.CollectOnce(ctx)
	if err != nil {
		c.logger.Error("collection failed", "city", c.city, "error", err)
		return
	}
	c.logger.Info("reading published",
		"city", in.City,
		"timestamp_utc", in.TimestampUTC,
		"condition", in.ConditionText,
	)
}

// Start runs a collection immediately and then every interval.
func (c *Collector) Start() error {
	if c.interval <= 0 {
		return fmt.Errorf("collector interval must be positive, got %v", c.interval)
	}
	if _, err := c.scheduler.Every(c.interval).SingletonMode().Do(c.run); err != nil {
		return err
	}
	c.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler. Runs in progress finish on their own timeout.
func (c *Collector) Stop() {
	c.scheduler.Stop()
}
