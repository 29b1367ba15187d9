package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"burgerapi/pkg/burger"
	"burgerapi/pkg/burger/memory"
	"burgerapi/pkg/burger/redisstore"
	"burgerapi/pkg/burger/sqlstore"
	"burgerapi/pkg/config"
	"burgerapi/pkg/database"
	"burgerapi/pkg/logger"
)

// openRepository builds the repository selected by cfg.Store.Driver.
// The returned close func releases the underlying connection pool.
func openRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (burger.Repository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn(ctx, "using in-memory store, data is lost on exit")
		return memory.New(), noop, nil

	case config.DriverSQLite, config.DriverPostgres:
		db, err := database.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Store.AutoMigrate {
			res, err := database.Migrate(ctx, db, cfg.Store.Driver)
			if err != nil {
				db.Close()
				return nil, nil, err
			}
			log.Info(ctx, "schema migrated", "driver", cfg.Store.Driver, "version", res.Version)
		}
		repo, err := sqlstore.New(db, sqlstore.Dialect(cfg.Store.Driver))
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("pinging redis: %w", err)
		}
		return redisstore.New(rdb, cfg.Redis.Prefix), rdb.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
