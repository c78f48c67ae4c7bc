package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Проверка и инкремент выполняются одним скриптом, поэтому отказ счетчик не трогает.
// Возвращает {allowed, count, pttl_ms}.
var fixedWindowScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= limit then
  local ttl = redis.call("PTTL", KEYS[1])
  if ttl < 0 then
    redis.call("PEXPIRE", KEYS[1], window)
    ttl = window
  end
  return {0, current, ttl}
end
current = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], window)
  ttl = window
end
return {1, current, ttl}
`)

// RedisFixedWindow фиксированное окно в Redis, общее для всех инстансов сервиса
type RedisFixedWindow struct {
	client  redis.Scripter
	prefix  string
	ceiling int
	window  time.Duration
	clock   Clock
}

var _ Limiter = (*RedisFixedWindow)(nil)

// NewRedisFixedWindow создает лимитер поверх клиента Redis
func NewRedisFixedWindow(client redis.Scripter, prefix string, ceiling int, window time.Duration) *RedisFixedWindow {
	return &RedisFixedWindow{
		client:  client,
		prefix:  strings.Trim(strings.TrimSpace(prefix), ":"),
		ceiling: ceiling,
		window:  window,
		clock:   time.Now,
	}
}

// TryConsume implements Limiter.
func (l *RedisFixedWindow) TryConsume(ctx context.Context, key string) (Result, error) {
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.buildKey(key)}, l.ceiling, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, errors.New("unexpected script response"))
	}

	allowed, count, ttl := res[0] == 1, int(res[1]), time.Duration(res[2])*time.Millisecond
	remaining := l.ceiling - count
	if remaining < 0 {
		remaining = 0
	}

	out := Result{
		Allowed:   allowed,
		Limit:     l.ceiling,
		Remaining: remaining,
		ResetAt:   l.clock().Add(ttl),
	}
	if !allowed || remaining == 0 {
		out.RetryAfter = ttl
	}
	return out, nil
}

func (l *RedisFixedWindow) buildKey(key string) string {
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}
