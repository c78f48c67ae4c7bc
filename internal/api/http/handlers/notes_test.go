package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notes-api/internal/api/http/response"
	"notes-api/internal/model"
	"notes-api/internal/service/notes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNoteService - мок сервиса для тестирования handler
type mockNoteService struct {
	createFunc func(ctx context.Context, title, content string) (model.Note, error)
	getFunc    func(ctx context.Context, id string) (model.Note, error)
	listFunc   func(ctx context.Context) ([]model.Note, error)
	updateFunc func(ctx context.Context, id, title, content string) (model.Note, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockNoteService) Create(ctx context.Context, title, content string) (model.Note, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, title, content)
	}
	return model.Note{}, nil
}

func (m *mockNoteService) Get(ctx context.Context, id string) (model.Note, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return model.Note{}, nil
}

func (m *mockNoteService) List(ctx context.Context) ([]model.Note, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockNoteService) Update(ctx context.Context, id, title, content string) (model.Note, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, title, content)
	}
	return model.Note{}, nil
}

func (m *mockNoteService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func newTestRouter(svc *mockNoteService, events *notes.EventService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewNotesHandler(svc, events).Register(r.Group("/api/notes"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.Error {
	t.Helper()
	var body response.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func TestCreate_Returns201(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &mockNoteService{
		createFunc: func(_ context.Context, title, content string) (model.Note, error) {
			return model.Note{ID: "id-1", Title: title, Content: content, CreatedAt: now, UpdatedAt: now}, nil
		},
	}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodPost, "/api/notes", `{"title":"A","content":"B"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "id-1", body["_id"])
	assert.Equal(t, "A", body["title"])
	assert.Equal(t, "B", body["content"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["createdAt"])
}

func TestCreate_ValidationError(t *testing.T) {
	svc := &mockNoteService{
		createFunc: func(context.Context, string, string) (model.Note, error) {
			return model.Note{}, &model.ValidationError{Field: "title", Message: "title cannot be empty"}
		},
	}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodPost, "/api/notes", `{"title":"","content":"B"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, response.CodeValidation, body.Code)
	assert.Equal(t, "title", body.Field)
}

func TestCreate_MalformedBody(t *testing.T) {
	called := false
	svc := &mockNoteService{
		createFunc: func(context.Context, string, string) (model.Note, error) {
			called = true
			return model.Note{}, nil
		},
	}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodPost, "/api/notes", `{"title":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeInvalidBody, decodeError(t, w).Code)
	assert.False(t, called)
}

func TestList_EmptyIsArray(t *testing.T) {
	r := newTestRouter(&mockNoteService{}, nil)

	w := do(r, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestList_StorageErrorIsGeneric(t *testing.T) {
	svc := &mockNoteService{
		listFunc: func(context.Context) ([]model.Note, error) {
			return nil, &model.StorageError{Op: "list", Err: errors.New("pq: password authentication failed")}
		},
	}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, response.CodeInternal, body.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestGet_NotFound(t *testing.T) {
	svc := &mockNoteService{
		getFunc: func(context.Context, string) (model.Note, error) {
			return model.Note{}, model.ErrNoteNotFound
		},
	}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodGet, "/api/notes/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, decodeError(t, w).Code)
}

func TestUpdate_PassesFields(t *testing.T) {
	svc := &mockNoteService{
		updateFunc: func(_ context.Context, id, title, content string) (model.Note, error) {
			return model.Note{ID: id, Title: title, Content: content}, nil
		},
	}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodPut, "/api/notes/id-7", `{"title":"T","content":"C"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"_id":"id-7"`)
}

func TestUpdate_Timeout(t *testing.T) {
	svc := &mockNoteService{
		updateFunc: func(context.Context, string, string, string) (model.Note, error) {
			return model.Note{}, model.ErrStorageTimeout
		},
	}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodPut, "/api/notes/id-7", `{"title":"T","content":"C"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, response.CodeStorageTimeout, decodeError(t, w).Code)
}

func TestDelete(t *testing.T) {
	deleted := map[string]bool{}
	svc := &mockNoteService{
		deleteFunc: func(_ context.Context, id string) error {
			if deleted[id] {
				return model.ErrNoteNotFound
			}
			deleted[id] = true
			return nil
		},
	}
	r := newTestRouter(svc, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/api/notes/id-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/notes/id-1", "").Code)
}

func TestStream_DeliversEvents(t *testing.T) {
	events := notes.NewEventService()
	r := newTestRouter(&mockNoteService{}, events)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notes/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return events.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	events.Publish(notes.Event{Type: notes.EventCreated, Note: model.Note{ID: "id-1", Title: "A"}, At: time.Now()})

	buf := make([]byte, 512)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	chunk := string(buf[:n])
	assert.Contains(t, chunk, "event:created")
	assert.Contains(t, chunk, `"_id":"id-1"`)
}
