package app

import (
	"context"
	"errors"

	"handyman-auth/internal/config"
	"handyman-auth/internal/db"
	"handyman-auth/internal/logger"
	"handyman-auth/internal/redis"
	"handyman-auth/internal/session"
)

type Infra struct {
	DB       *db.DB
	Redis    *redis.Client
	Sessions session.Store
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	logger.Info("database ready", map[string]any{"driver": database.Driver()})

	infra := &Infra{DB: database}

	if cfg.RedisAddr == "" {
		infra.Sessions = session.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory", nil)
		return infra, nil
	}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		database.Close()
		return nil, err
	}
	infra.Redis = redisClient
	infra.Sessions = session.NewRedisStore(redisClient.Client)

	logger.Info("redis ready", nil)
	return infra, nil
}

// Close releases the database and Redis connections.
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
