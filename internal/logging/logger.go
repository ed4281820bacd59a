package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the handler: dev builds get tint, release builds get JSON.
type Options struct {
	AppName string
	Version string
	AppEnv  string
	Level   slog.Level
}

func New(opts Options) *slog.Logger {
	return newWithWriter(os.Stdout, opts)
}

func newWithWriter(w io.Writer, opts Options) *slog.Logger {
	if opts.Version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    w != os.Stdout,
		})
		return slog.New(h).With("app", opts.AppName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: opts.Level,
	})
	return slog.New(h).With(
		"app", opts.AppName,
		"version", opts.Version,
		"env", opts.AppEnv,
	)
}
