package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	start time.Time
	count int
}

// FixedWindow фиксированное окно в памяти процесса.
// Окно ключа начинается с первого запроса и длится window; после истечения счетчик обнуляется.
type FixedWindow struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	ceiling int
	window  time.Duration
	cfg     settings
}

var _ Limiter = (*FixedWindow)(nil)

// NewFixedWindow создает лимитер на ceiling запросов за window
func NewFixedWindow(ceiling int, window time.Duration, opts ...Option) *FixedWindow {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FixedWindow{
		entries: make(map[string]*windowEntry),
		ceiling: ceiling,
		window:  window,
		cfg:     cfg,
	}
}

// TryConsume implements Limiter.
func (l *FixedWindow) TryConsume(_ context.Context, key string) (Result, error) {
	now := l.cfg.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[key]
	if e == nil || !now.Before(e.start.Add(l.window)) {
		e = &windowEntry{start: now}
		l.entries[key] = e
	}
	reset := e.start.Add(l.window)

	if e.count >= l.ceiling {
		return Result{
			Allowed:    false,
			Limit:      l.ceiling,
			Remaining:  0,
			RetryAfter: reset.Sub(now),
			ResetAt:    reset,
		}, nil
	}

	e.count++
	res := Result{
		Allowed:   true,
		Limit:     l.ceiling,
		Remaining: l.ceiling - e.count,
		ResetAt:   reset,
	}
	if res.Remaining == 0 {
		res.RetryAfter = reset.Sub(now)
	}
	return res, nil
}

// Count возвращает счетчик текущего окна ключа (0, если окно истекло)
func (l *FixedWindow) Count(key string) int {
	now := l.cfg.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[key]
	if e == nil || !now.Before(e.start.Add(l.window)) {
		return 0
	}
	return e.count
}

// Cleanup удаляет ключи с истекшим окном
func (l *FixedWindow) Cleanup() {
	now := l.cfg.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.entries {
		if !now.Before(e.start.Add(l.window)) {
			delete(l.entries, k)
		}
	}
}

// Len количество отслеживаемых ключей
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartJanitor запускает фоновую очистку истекших окон. Останавливается отменой ctx.
func (l *FixedWindow) StartJanitor(ctx context.Context) {
	startJanitor(ctx, l.cfg.cleanupEvery, l.Cleanup)
}
