package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"notes-api/internal/api/http/response"
	"notes-api/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) TryConsume(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.Join(ratelimit.ErrStoreUnavailable, errors.New("dial tcp: refused"))
}

type countingLimiter struct {
	calls int
	inner ratelimit.Limiter
}

func (c *countingLimiter) TryConsume(ctx context.Context, key string) (ratelimit.Result, error) {
	c.calls++
	return c.inner.TryConsume(ctx, key)
}

type recordingStats struct {
	events []ratelimit.StatsEvent
}

func (s *recordingStats) Record(_ context.Context, ev ratelimit.StatsEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, "http://example/api/notes", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestAdmission_AllowsThenRejects(t *testing.T) {
	calls := 0
	h := Admission(AdmissionOptions{
		Limiter: ratelimit.NewFixedWindow(2, time.Minute),
	})(okHandler(&calls))

	for i := 0; i < 2; i++ {
		w := serve(h, http.MethodPost)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := serve(h, http.MethodPost)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 2, calls, "downstream must not run for rejected requests")

	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retry > 0 && retry <= 60, "retry hint %d", retry)

	var body response.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, response.CodeRateLimited, body.Code)
	assert.Equal(t, retry, body.RetryAfter)
	assert.NotEmpty(t, body.Message)
}

func TestAdmission_PreflightNeverConsumes(t *testing.T) {
	calls := 0
	limiter := &countingLimiter{inner: ratelimit.NewFixedWindow(1, time.Minute)}
	h := Admission(AdmissionOptions{Limiter: limiter})(okHandler(&calls))

	for i := 0; i < 20; i++ {
		w := serve(h, http.MethodOptions)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 0, limiter.calls)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodOptions).Code)
	assert.Equal(t, 2, limiter.calls)
}

func TestAdmission_FailClosedByDefault(t *testing.T) {
	calls := 0
	h := Admission(AdmissionOptions{
		Limiter:               failingLimiter{},
		UnavailableRetryAfter: 3 * time.Second,
	})(okHandler(&calls))

	w := serve(h, http.MethodGet)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
	assert.Equal(t, 0, calls)

	var body response.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, response.CodeLimiterUnavailable, body.Code)
}

func TestAdmission_FailOpen(t *testing.T) {
	calls := 0
	h := Admission(AdmissionOptions{
		Limiter:  failingLimiter{},
		FailOpen: true,
	})(okHandler(&calls))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet).Code)
	assert.Equal(t, 1, calls)
}

func TestAdmission_NilLimiterPassesThrough(t *testing.T) {
	calls := 0
	h := Admission(AdmissionOptions{})(okHandler(&calls))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodPost).Code)
	}
	assert.Equal(t, 5, calls)
}

func TestAdmission_PerClientKey(t *testing.T) {
	calls := 0
	h := Admission(AdmissionOptions{
		Limiter: ratelimit.NewFixedWindow(1, time.Minute),
		KeyFn:   ratelimit.ClientIPKeyFunc(false),
	})(okHandler(&calls))

	r1 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r1.RemoteAddr = "10.0.0.1:1"
	r2 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r2.RemoteAddr = "10.0.0.2:1"

	w1, w2 := httptest.NewRecorder(), httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	h.ServeHTTP(w2, r2)

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestAdmission_RecordsStats(t *testing.T) {
	calls := 0
	stats := &recordingStats{}
	h := Admission(AdmissionOptions{
		Limiter: ratelimit.NewFixedWindow(1, time.Minute),
		Stats:   stats,
	})(okHandler(&calls))

	serve(h, http.MethodPost)
	serve(h, http.MethodPost)
	serve(h, http.MethodOptions)

	require.Len(t, stats.events, 2)
	assert.True(t, stats.events[0].Allowed)
	assert.False(t, stats.events[1].Allowed)
	assert.Equal(t, "/api/notes", stats.events[1].Path)
}
