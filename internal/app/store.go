package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClaudineiMS/gdash/internal/config"
	"github.com/ClaudineiMS/gdash/internal/db"
	"github.com/ClaudineiMS/gdash/internal/httpapi"
	"github.com/ClaudineiMS/gdash/internal/migrate"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/repository"
)

type store struct {
	repo   repository.WeatherRepository
	pinger httpapi.Pinger
	close  func() error
}

// openStore connects the backend named by cfg.DBDriver and prepares its schema.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, err := db.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		if err := repository.EnsureIndexes(ctx, coll); err != nil {
			_ = db.CloseMongo(context.Background(), client)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &store{
			repo: repository.NewMongoRepository(coll),
			pinger: httpapi.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}),
			close: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return db.CloseMongo(ctx, client)
			},
		}, nil

	default:
		conn, err := db.Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := migrate.Run(ctx, conn); err != nil {
			_ = db.Close(conn)
			return nil, err
		}
		return &store{
			repo:   repository.NewSQLiteRepository(conn),
			pinger: httpapi.PingFunc(conn.PingContext),
			close:  func() error { return db.Close(conn) },
		}, nil
	}
}
