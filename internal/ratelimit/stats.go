package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsEvent событие решения admission control
type StatsEvent struct {
	Key     string
	Allowed bool
	Method  string
	Path    string
	At      time.Time
}

// StatsStore сохраняет статистику решений.
// Middleware трактует ошибки как best-effort и не влияет на ответ.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// RedisStatsStore счетчики allowed/denied в хэшах Redis:
// prefix:total, prefix:minute:<yyyymmddhhmm> (с TTL) и prefix:route
type RedisStatsStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStatsStore создает хранилище статистики
func NewRedisStatsStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStatsStore {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStatsStore{rdb: rdb, prefix: prefix + ":stats", ttl: ttl}
}

// Record implements StatsStore.
func (s *RedisStatsStore) Record(ctx context.Context, ev StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if route := strings.TrimSpace(ev.Method + " " + ev.Path); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}
