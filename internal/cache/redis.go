package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"necessities/swap/internal/config"
)

// Redis wraps the client together with the embedded server started when no
// address is configured.
type Redis struct {
	*redis.Client
	embedded *miniredis.Miniredis
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start embedded redis: %w", err)
		}
		logger.Info().Str("addr", mr.Addr()).Msg("embedded redis started")
		return &Redis{
			Client:   redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			embedded: mr,
		}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info().Str("addr", cfg.Addr).Msg("connected to redis")
	return &Redis{Client: client}, nil
}

func (r *Redis) Embedded() bool {
	return r.embedded != nil
}

func (r *Redis) Close() error {
	err := r.Client.Close()
	if r.embedded != nil {
		r.embedded.Close()
	}
	return err
}
