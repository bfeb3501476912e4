package rate

import (
	"context"
	"fmt"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/idpbridge/internal/config"
)

// FromConfig arma el limiter según config. Devuelve (nil, noop, nil) si el
// rate limiting está deshabilitado. La func devuelta libera la conexión a Redis.
func FromConfig(ctx context.Context, cfg config.Rate) (Limiter, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Enabled || cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, noop, nil
	}
	if cfg.Redis.Addr == "" {
		return NewMemoryLimiter(cfg.Redis.Prefix, cfg.Limit, cfg.Window), noop, nil
	}

	client := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, noop, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return NewRedisLimiter(client, cfg.Redis.Prefix, cfg.Limit, cfg.Window), client.Close, nil
}
