package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ClaudineiMS/gdash/internal/config"
	"github.com/ClaudineiMS/gdash/internal/httpapi"
	"github.com/ClaudineiMS/gdash/internal/modules/weather"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/controller"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/service"
	weatherviews "github.com/ClaudineiMS/gdash/internal/modules/weather/views"
	"github.com/ClaudineiMS/gdash/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.DBDriver,
		"sqlitePath", cfg.SQLitePath,
		"mongoDatabase", cfg.MongoDatabase,
		"mqttEnabled", cfg.MQTT.Enabled,
		"mqttBroker", cfg.MQTT.Broker,
		"mqttPort", cfg.MQTT.Port,
		"mqttTopic", cfg.MQTT.Topic,
		"displayTimezone", cfg.DisplayLocation.String(),
	)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.close(); closeErr != nil {
			logger.Error("store close", "error", closeErr)
		}
	}()
	logger.Info("database connection successful", "driver", cfg.DBDriver)

	if err := weatherviews.LoadTemplates(); err != nil {
		return err
	}

	// The handler must be set before Connect so the on-connect subscription
	// can deliver messages the broker queued for us.
	var subscriber *mqtt.Subscriber
	var ingest service.MessageSubscriber
	if cfg.MQTT.Enabled {
		subscriber = mqtt.NewSubscriber(cfg.MQTT, logger)
		ingest = subscriber
	}

	mux := httpapi.NewMux(st.pinger)
	opts := controller.Options{
		Location:        cfg.DisplayLocation,
		HistoryPageSize: cfg.HistoryPageSize,
	}
	weather.RegisterFeature(mux, st.repo, opts, ingest, logger)

	if subscriber != nil {
		// A short initial connect keeps startup fast when the broker is down;
		// paho keeps retrying in the background.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
