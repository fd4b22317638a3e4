package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/lock"
	"github.com/JonMunkholm/roster/internal/store"
)

// backend holds the connections a command needs. close releases them.
type backend struct {
	cfg   *config.Config
	pool  *pgxpool.Pool
	store *store.Postgres
	lock  core.Locker
	close func()
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("connect database: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("ping database: %w", err))
	}
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, withCode(exitDB, err)
		}
	}

	b := &backend{
		cfg:   cfg,
		pool:  pool,
		store: store.NewPostgres(pool),
		close: pool.Close,
	}

	// Share the server's lock when one is configured; otherwise the
	// identity index is the only guard against a concurrent upload.
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			b.close()
			return nil, withCode(exitUsage, fmt.Errorf("parse REDIS_URL: %w", err))
		}
		client := redis.NewClient(opts)
		b.lock = lock.NewRedis(client, cfg.Import.LockTTL, cfg.Import.LockWait, lock.WithKey(cfg.Redis.LockKey))
		b.close = func() {
			_ = client.Close()
			pool.Close()
		}
	} else {
		slog.Debug("no REDIS_URL; importing without the shared lock")
	}

	return b, nil
}

func (b *backend) service() *core.Service {
	return core.NewService(b.store, b.lock, nil, core.ServiceConfig{
		UploadDir:     b.cfg.Import.UploadDir,
		ExportDir:     b.cfg.Import.ExportDir,
		ImportTimeout: b.cfg.Import.Timeout,
	})
}
