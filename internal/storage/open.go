package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/homedesigner/auth_service/internal/config"
)

// Open builds the SessionStore selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Storage) (SessionStore, error) {
	const op = "storage.Open"

	switch cfg.Driver {
	case config.DriverPostgres:
		st, err := NewPostgresStorage(ctx, cfg.DB.DbURL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if cfg.DB.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				st.Close()
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		return st, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return NewRedisStorage(client, cfg.Redis.Prefix), nil

	case config.DriverMongo:
		st, err := NewMongoStorage(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil

	case config.DriverBolt:
		st, err := NewBoltStorage(cfg.Bolt.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil

	case config.DriverMemory:
		return NewMemoryStorage(), nil

	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}
}
