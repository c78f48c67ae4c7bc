package ratelimit

import (
	"context"
	"fmt"
	"time"

	"notes-api/internal/config"

	"github.com/redis/go-redis/v9"
)

// New собирает лимитер по конфигурации и запускает janitor для бэкендов в памяти.
// rdb нужен только для backend=redis.
func New(ctx context.Context, cfg *config.ConfigRateLimit, redisCfg *config.ConfigRedis, rdb *redis.Client) (Limiter, error) {
	opts := []Option{WithCleanupEvery(time.Duration(cfg.CleanupSeconds) * time.Second)}

	switch cfg.Backend {
	case config.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("ratelimit: redis backend requires a client")
		}
		return NewRedisFixedWindow(rdb, redisCfg.Prefix, cfg.Ceiling, cfg.Window()), nil
	case config.BackendMemory:
		switch cfg.Algorithm {
		case config.AlgorithmTokenBucket:
			l := NewTokenBucket(cfg.Ceiling, cfg.Window(), opts...)
			l.StartJanitor(ctx)
			return l, nil
		default:
			l := NewFixedWindow(cfg.Ceiling, cfg.Window(), opts...)
			l.StartJanitor(ctx)
			return l, nil
		}
	default:
		return nil, fmt.Errorf("ratelimit: unknown backend %q", cfg.Backend)
	}
}

// KeyFuncFor возвращает политику ключа по конфигурации
func KeyFuncFor(cfg *config.ConfigRateLimit) KeyFunc {
	switch cfg.KeyPolicy {
	case config.KeyPolicyIP:
		return ClientIPKeyFunc(cfg.TrustXFF)
	case config.KeyPolicyHeader:
		return HeaderKeyFunc(cfg.KeyHeader, cfg.TrustXFF)
	default:
		return GlobalKeyFunc()
	}
}
