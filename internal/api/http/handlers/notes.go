package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"notes-api/internal/api/http/response"
	"notes-api/internal/model"
	svc "notes-api/internal/service"
	"notes-api/internal/service/notes"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// noteRequest тело POST и PUT
type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// noteResponse JSON-представление заметки. Фронтенд читает идентификатор из _id.
type noteResponse struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type eventResponse struct {
	Type string       `json:"type"`
	Note noteResponse `json:"note"`
	At   time.Time    `json:"at"`
}

func toResponse(n model.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NotesHandler HTTP-поверхность сервиса заметок
type NotesHandler struct {
	noteService svc.NoteService
	events      *notes.EventService
}

// NewNotesHandler создает хэндлер. events может быть nil, тогда поток событий не регистрируется.
func NewNotesHandler(noteService svc.NoteService, events *notes.EventService) *NotesHandler {
	return &NotesHandler{noteService: noteService, events: events}
}

// Register регистрирует маршруты на группе с префиксом API
func (h *NotesHandler) Register(r gin.IRouter) {
	r.GET("", h.list)
	r.POST("", h.create)
	if h.events != nil {
		r.GET("/events", h.stream)
	}
	r.GET("/:id", h.get)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
}

func (h *NotesHandler) list(c *gin.Context) {
	list, err := h.noteService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]noteResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toResponse(n))
	}
	c.JSON(http.StatusOK, out)
}

func (h *NotesHandler) get(c *gin.Context) {
	note, err := h.noteService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(note))
}

func (h *NotesHandler) create(c *gin.Context) {
	var req noteRequest
	if !bindNote(c, &req) {
		return
	}

	note, err := h.noteService.Create(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(note))
}

func (h *NotesHandler) update(c *gin.Context) {
	var req noteRequest
	if !bindNote(c, &req) {
		return
	}

	note, err := h.noteService.Update(c.Request.Context(), c.Param("id"), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(note))
}

func (h *NotesHandler) delete(c *gin.Context) {
	if err := h.noteService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// stream отдает изменения заметок как Server-Sent Events до отключения клиента
func (h *NotesHandler) stream(c *gin.Context) {
	ch := h.events.Subscribe()
	defer h.events.Unsubscribe(ch)

	// Заголовки отправляем сразу, чтобы клиент получил ответ до первого события
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), eventResponse{
				Type: string(ev.Type),
				Note: toResponse(ev.Note),
				At:   ev.At,
			})
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func bindNote(c *gin.Context, req *noteRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Error{
			Code:    response.CodeInvalidBody,
			Message: "request body must be a JSON object with title and content",
		})
		return false
	}
	return true
}

// respondError конвертирует ошибки сервиса в HTTP-ответы
func respondError(c *gin.Context, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Error{
			Code:    response.CodeValidation,
			Message: ve.Message,
			Field:   ve.Field,
		})
	case errors.Is(err, model.ErrNoteNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, response.Error{
			Code:    response.CodeNotFound,
			Message: "Note not found",
		})
	case errors.Is(err, model.ErrStorageTimeout):
		log.WithError(err).WithField("path", c.Request.URL.Path).Warn("storage timeout")
		response.SetRetryAfter(c.Writer.Header(), 1)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Error{
			Code:       response.CodeStorageTimeout,
			Message:    "Storage is slow to respond, please retry.",
			RetryAfter: 1,
		})
	default:
		// Детали только в лог
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error{
			Code:    response.CodeInternal,
			Message: "Internal server error",
		})
	}
}
