package app

import (
	"context"
	"errors"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logger"
	"storefront/internal/order"
	"storefront/internal/redis"
	"storefront/internal/session"
)

// Infra holds the backing stores. DB and Redis are nil when the service
// runs on in-memory stores.
type Infra struct {
	DB    *db.DB
	Redis *redis.Client

	Catalog  catalog.Store
	Orders   order.Repository
	Sessions session.Store
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		conn, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		infra.DB = conn

		if err := db.RunStorefrontMigration(ctx, conn.DB); err != nil {
			_ = infra.Close()
			return nil, err
		}

		infra.Catalog = catalog.NewPostgresStore(conn)
		infra.Orders = order.NewPostgresRepository(conn)
		logger.Info("database ready", nil)
	} else {
		infra.Catalog = catalog.NewMemoryStore()
		infra.Orders = order.NewMemoryRepository()
		logger.Warn("DATABASE_DSN not set, using in-memory catalog", nil)
	}

	if cfg.SeedCatalog {
		n, err := catalog.Seed(ctx, infra.Catalog)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		logger.Info("catalog seeded", map[string]any{"products": n})
	}

	if cfg.RedisAddr != "" {
		client, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Redis = client
		infra.Sessions = session.NewRedisStore(client.Client)
		logger.Info("redis ready", nil)
	} else {
		infra.Sessions = session.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, using in-memory sessions", nil)
	}

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}
