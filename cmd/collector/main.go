package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ClaudineiMS/gdash/internal/collector"
	"github.com/ClaudineiMS/gdash/internal/config"
	"github.com/ClaudineiMS/gdash/internal/logging"
	"github.com/ClaudineiMS/gdash/internal/mqtt"
)

var version = "dev"
var appName = "gdash-collector"

func main() {
	config.LoadDotEnv()

	cfg, err := config.LoadCollectorFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		AppName: appName,
		Version: version,
		AppEnv:  cfg.AppEnv,
		Level:   cfg.LogLevel,
	})
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"city", cfg.City,
		"interval", cfg.Interval.String(),
		"mqtt_broker", cfg.MQTT.Broker,
		"mqtt_topic", cfg.MQTT.Topic,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.CollectorConfig, logger *slog.Logger) error {
	publisher := mqtt.NewPublisher(cfg.MQTT, logger)
	defer publisher.Disconnect()

	if err := publisher.Connect(ctx); err != nil {
		return err
	}

	api := collector.NewOpenMeteo(cfg.ForecastURL, cfg.GeocodeURL, &http.Client{Timeout: cfg.HTTPTimeout})
	c := collector.New(api, publisher, collector.Options{
		City:     cfg.City,
		Interval: cfg.Interval,
	}, logger)
	if err := c.Start(); err != nil {
		return err
	}
	defer c.Stop()

	<-ctx.Done()
	return ctx.Err()
}
