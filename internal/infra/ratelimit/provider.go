package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"wallet/config"
	"wallet/internal/domain/lifecycle"
	"wallet/internal/domain/service"
	"wallet/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const memorySweepInterval = time.Minute

// Params defines the dependencies of the store provider.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewStore selects the counter backend from configuration and ties it to the app lifecycle.
func NewStore(params Params) (service.RateLimitStore, error) {
	switch params.Config.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		return newRedisBackend(params)
	case config.RateLimitBackendMemory, "":
		return newMemoryBackend(params), nil
	default:
		return nil, errors.Errorf("unknown rate limit backend: %s", params.Config.RateLimit.Backend)
	}
}

func newMemoryBackend(params Params) *MemoryStore {
	store := NewMemoryStore()
	sweepCtx, cancel := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go store.Run(sweepCtx, memorySweepInterval)
			params.Logger.Info("Rate limiter using in-memory store")

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()

			return nil
		},
	})

	return store
}

func newRedisBackend(params Params) (*RedisStore, error) {
	cfg := params.Config.Redis
	if cfg == nil || cfg.Addr == "" {
		return nil, errors.New("redis backend selected but redis.addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping redis")
			}
			params.Logger.Info("Rate limiter using redis store", slog.String("addr", cfg.Addr))

			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewRedisStore(client), nil
}
