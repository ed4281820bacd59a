package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/ClaudineiMS/gdash/internal/app"
	"github.com/ClaudineiMS/gdash/internal/config"
	"github.com/ClaudineiMS/gdash/internal/logging"
)

const appName = "gdash-server"

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	config.LoadDotEnv()

	cfg, err := config.LoadFromEnv()
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
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
