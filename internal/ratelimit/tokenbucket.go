package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// TokenBucket бюджет с равномерным пополнением: ceiling единиц за window, burst = ceiling.
// Отклоненный AllowN токены не списывает.
type TokenBucket struct {
	mu      sync.Mutex
	entries map[string]*bucketEntry
	ceiling int
	every   time.Duration
	idleTTL time.Duration
	cfg     settings
}

var _ Limiter = (*TokenBucket)(nil)

// NewTokenBucket создает лимитер, пополняющий ceiling токенов за window
func NewTokenBucket(ceiling int, window time.Duration, opts ...Option) *TokenBucket {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TokenBucket{
		entries: make(map[string]*bucketEntry),
		ceiling: ceiling,
		every:   window / time.Duration(ceiling),
		idleTTL: window,
		cfg:     cfg,
	}
}

// TryConsume implements Limiter.
func (l *TokenBucket) TryConsume(_ context.Context, key string) (Result, error) {
	now := l.cfg.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.entries[key]
	if !ok {
		ent = &bucketEntry{lim: rate.NewLimiter(rate.Every(l.every), l.ceiling)}
		l.entries[key] = ent
	}
	ent.lastSeen = now

	allowed := ent.lim.AllowN(now, 1)
	tokens := ent.lim.TokensAt(now)

	res := Result{
		Allowed:   allowed,
		Limit:     l.ceiling,
		Remaining: int(math.Max(0, math.Floor(tokens))),
	}
	// Время до появления следующего целого токена
	if tokens < 1 {
		res.RetryAfter = time.Duration((1 - tokens) * float64(l.every))
	}
	// Время до полного восстановления бюджета
	res.ResetAt = now.Add(time.Duration((float64(l.ceiling) - tokens) * float64(l.every)))
	return res, nil
}

// Cleanup удаляет ключи, не использовавшиеся дольше окна (их бюджет уже полон)
func (l *TokenBucket) Cleanup() {
	cutoff := l.cfg.clock().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// Len количество отслеживаемых ключей
func (l *TokenBucket) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartJanitor запускает фоновую очистку неактивных ключей
func (l *TokenBucket) StartJanitor(ctx context.Context) {
	startJanitor(ctx, l.cfg.cleanupEvery, l.Cleanup)
}
