package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable возвращается, когда хранилище счетчиков недоступно
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter время до освобождения бюджета; 0 для разрешенных запросов с запасом
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter атомарно проверяет и списывает одну единицу бюджета для ключа
type Limiter interface {
	TryConsume(ctx context.Context, key string) (Result, error)
}

// Clock источник текущего времени, подменяется в тестах
type Clock func() time.Time

// Option настраивает лимитеры в памяти
type Option func(*settings)

type settings struct {
	clock        Clock
	cleanupEvery time.Duration
}

func defaultSettings() settings {
	return settings{
		clock:        time.Now,
		cleanupEvery: 2 * time.Minute,
	}
}

// WithClock подменяет источник времени
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCleanupEvery задает период janitor; 0 отключает фоновую очистку
func WithCleanupEvery(d time.Duration) Option {
	return func(s *settings) { s.cleanupEvery = d }
}

// startJanitor запускает периодическую очистку до отмены ctx
func startJanitor(ctx context.Context, every time.Duration, cleanup func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				cleanup()
			}
		}
	}()
}
