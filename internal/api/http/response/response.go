// Package response общий формат JSON-ошибок для middleware и хэндлеров
package response

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Коды ошибок API
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidBody        = "INVALID_BODY"
	CodeNotFound           = "NOTE_NOT_FOUND"
	CodeRouteNotFound      = "NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeLimiterUnavailable = "RATE_LIMITER_UNAVAILABLE"
	CodeStorageTimeout     = "STORAGE_TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error тело любого отказа API
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// RetryAfterSeconds округляет вверх до целых секунд, минимум 1
func RetryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// SetRetryAfter выставляет заголовок Retry-After
func SetRetryAfter(h http.Header, seconds int) {
	h.Set("Retry-After", strconv.Itoa(seconds))
}

// WriteError пишет JSON-ошибку в обычный http.ResponseWriter
func WriteError(w http.ResponseWriter, status int, body Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
