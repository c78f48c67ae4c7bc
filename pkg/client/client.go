// Package client HTTP-клиент notes-api.
//
// Ошибки транспорта (ответа нет) возвращаются как *TransportError,
// ответы с ошибкой как *APIError, поэтому вызывающий код не разбирает net/http.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"notes-api/internal/api/http/response"
)

// Note заметка в формате API
type Note struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TransportError запрос не получил ответа (сеть, DNS, таймаут)
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: no response: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError сервер ответил ошибкой
type APIError struct {
	Status     int
	Code       string
	Message    string
	Field      string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound заметка не существует
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsRateLimited бюджет запросов исчерпан; подсказка в APIError.RetryAfter
func IsRateLimited(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusTooManyRequests
}

// IsValidation входные данные отклонены
func IsValidation(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusBadRequest
}

// Client клиент API заметок
type Client struct {
	baseURL    string
	apiPrefix  string
	apiKey     string
	httpClient *http.Client
}

// Option настраивает клиент
type Option func(*Client)

// WithHTTPClient подменяет http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIPrefix задает префикс API (по умолчанию /api/notes)
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) { c.apiPrefix = "/" + strings.Trim(prefix, "/") }
}

// WithAPIKey отправляет ключ в X-Api-Key (нужен при key_policy=header)
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New создает клиент для сервера по адресу baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiPrefix:  "/api/notes",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// List возвращает все заметки
func (c *Client) List(ctx context.Context) ([]Note, error) {
	var notes []Note
	if err := c.do(ctx, "list", http.MethodGet, "", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Get возвращает заметку по ID
func (c *Client) Get(ctx context.Context, id string) (Note, error) {
	var note Note
	err := c.do(ctx, "get", http.MethodGet, "/"+url.PathEscape(id), nil, &note)
	return note, err
}

// Create создает заметку
func (c *Client) Create(ctx context.Context, title, content string) (Note, error) {
	var note Note
	err := c.do(ctx, "create", http.MethodPost, "", noteRequest{Title: title, Content: content}, &note)
	return note, err
}

// Update заменяет title и content заметки
func (c *Client) Update(ctx context.Context, id, title, content string) (Note, error) {
	var note Note
	err := c.do(ctx, "update", http.MethodPut, "/"+url.PathEscape(id), noteRequest{Title: title, Content: content}, &note)
	return note, err
}

// Delete удаляет заметку
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body response.Error
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Field = body.Field
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	return apiErr
}
