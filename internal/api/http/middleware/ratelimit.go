package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"notes-api/internal/api/http/response"
	"notes-api/internal/ratelimit"

	log "github.com/sirupsen/logrus"
)

// AdmissionOptions настройки admission middleware
type AdmissionOptions struct {
	Limiter ratelimit.Limiter
	KeyFn   ratelimit.KeyFunc
	// FailOpen пропускает запросы при недоступном хранилище счетчиков.
	// По умолчанию false: запрос отклоняется с 503.
	FailOpen bool
	// UnavailableRetryAfter подсказка клиенту при отказе хранилища счетчиков
	UnavailableRetryAfter time.Duration
	Stats                 ratelimit.StatsStore
}

// Admission единая точка контроля бюджета запросов перед хэндлерами.
// Preflight (OPTIONS) пропускается без обращения к лимитеру.
func Admission(opts AdmissionOptions) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = ratelimit.GlobalKeyFunc()
	}
	if opts.UnavailableRetryAfter <= 0 {
		opts.UnavailableRetryAfter = 5 * time.Second
	}

	return func(next http.Handler) http.Handler {
		if opts.Limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := opts.KeyFn(r)
			res, err := opts.Limiter.TryConsume(r.Context(), key)
			if err != nil {
				if opts.FailOpen {
					log.WithError(err).WithField("key", key).Warn("[HTTP] rate limiter unavailable, admitting request")
					next.ServeHTTP(w, r)
					return
				}
				log.WithError(err).WithField("key", key).Error("[HTTP] rate limiter unavailable, rejecting request")
				secs := response.RetryAfterSeconds(opts.UnavailableRetryAfter)
				response.SetRetryAfter(w.Header(), secs)
				response.WriteError(w, http.StatusServiceUnavailable, response.Error{
					Code:       response.CodeLimiterUnavailable,
					Message:    "Service temporarily unavailable, please try again later.",
					RetryAfter: secs,
				})
				return
			}

			recordStats(r, opts.Stats, key, res.Allowed)
			setRateLimitHeaders(w.Header(), res)

			if !res.Allowed {
				log.WithFields(log.Fields{"key": key, "path": r.URL.Path}).Warn("[HTTP] rate limit exceeded")
				secs := response.RetryAfterSeconds(res.RetryAfter)
				response.SetRetryAfter(w.Header(), secs)
				response.WriteError(w, http.StatusTooManyRequests, response.Error{
					Code:       response.CodeRateLimited,
					Message:    "Too many requests, please try again later.",
					RetryAfter: secs,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(h http.Header, res ratelimit.Result) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	if !res.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	}
}

func recordStats(r *http.Request, stats ratelimit.StatsStore, key string, allowed bool) {
	if stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 500*time.Millisecond)
	defer cancel()
	err := stats.Record(ctx, ratelimit.StatsEvent{
		Key:     key,
		Allowed: allowed,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
	if err != nil {
		log.WithError(err).Debug("[HTTP] rate limit stats not recorded")
	}
}
