package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ClaudineiMS/gdash/internal/config"
	"github.com/ClaudineiMS/gdash/internal/db"
	"github.com/ClaudineiMS/gdash/internal/migrate"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/export"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/repository"
)

const usage = `usage: %s <command>
  migrate             apply pending SQLite migrations
  export-csv [file]   write all readings as CSV (stdout by default)
  export-xlsx <file>  write all readings as an XLSX workbook
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	config.LoadDotEnv()
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.DBDriver != config.DriverSQLite {
		fmt.Fprintf(os.Stderr, "tools only support DB_DRIVER=%s\n", config.DriverSQLite)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	conn, err := db.Open(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	ctx := context.Background()
	if err := run(ctx, os.Args[1], os.Args[2:], conn, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, conn *sql.DB, stdout io.Writer) (err error) {
	switch cmd {
	case "migrate", "export-csv":
	case "export-xlsx":
		if len(args) == 0 {
			return fmt.Errorf("missing output file")
		}
	default:
		return fmt.Errorf("unknown command")
	}

	if err := migrate.Run(ctx, conn); err != nil {
		return err
	}
	if cmd == "migrate" {
		fmt.Fprintln(stdout, "migrations applied")
		return nil
	}

	readings, err := repository.NewSQLiteRepository(conn).FindForExport(ctx)
	if err != nil {
		return err
	}

	if cmd == "export-xlsx" {
		buf, err := export.XLSX(readings, export.DefaultColumns)
		if err != nil {
			return err
		}
		return os.WriteFile(args[0], buf.Bytes(), 0o644)
	}

	out := stdout
	if len(args) > 0 {
		f, createErr := os.Create(args[0])
		if createErr != nil {
			return createErr
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", args[0], closeErr)
			}
		}()
		out = f
	}
	_, err = io.WriteString(out, export.CSV(readings, export.DefaultColumns))
	return err
}
