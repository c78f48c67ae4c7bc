package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-api/internal/model"
	"notes-api/internal/repository"
	svc "notes-api/internal/service"
)

// DefaultOperationTimeout ограничение одной операции хранилища
const DefaultOperationTimeout = 5 * time.Second

var _ svc.NoteService = (*service)(nil)

type service struct {
	noteRepository repository.NoteRepository
	events         *EventService
	timeout        time.Duration
}

// Option настраивает сервис заметок
type Option func(*service)

// WithEvents публикует изменения заметок в EventService
func WithEvents(events *EventService) Option {
	return func(s *service) { s.events = events }
}

// WithOperationTimeout задает таймаут операций хранилища
func WithOperationTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewNoteService создает новый экземпляр сервиса для работы с заметками
func NewNoteService(noteRepository repository.NoteRepository, opts ...Option) svc.NoteService {
	s := &service{
		noteRepository: noteRepository,
		timeout:        DefaultOperationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeContext отвязывает операцию хранилища от отмены клиентом и ограничивает её таймаутом.
// Если клиент отключился, начатая запись все равно завершается.
func (s *service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

// Create создает новую заметку с указанными title и content
func (s *service) Create(ctx context.Context, title, content string) (model.Note, error) {
	note, err := model.NewNote(title, content)
	if err != nil {
		return model.Note{}, err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	// ID и временные метки назначает репозиторий
	createdNote, err := s.noteRepository.Create(storeCtx, note)
	if err != nil {
		return model.Note{}, storageError("create", err)
	}

	s.publish(EventCreated, createdNote)
	return createdNote, nil
}

// Get возвращает заметку по её ID
func (s *service) Get(ctx context.Context, id string) (model.Note, error) {
	if id == "" {
		return model.Note{}, &model.ValidationError{Field: "id", Message: "id cannot be empty"}
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	note, err := s.noteRepository.GetByID(storeCtx, id)
	if err != nil {
		return model.Note{}, storageError("get", err)
	}

	return note, nil
}

// List возвращает список всех заметок
func (s *service) List(ctx context.Context) ([]model.Note, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	notes, err := s.noteRepository.List(storeCtx)
	if err != nil {
		return nil, storageError("list", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}

	return notes, nil
}

// Update заменяет title и content заметки с указанным ID.
// Валидация выполняется до обращения к хранилищу, частичного обновления не бывает.
func (s *service) Update(ctx context.Context, id, title, content string) (model.Note, error) {
	if id == "" {
		return model.Note{}, &model.ValidationError{Field: "id", Message: "id cannot be empty"}
	}

	note, err := model.NewNote(title, content)
	if err != nil {
		return model.Note{}, err
	}
	note.ID = id

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	updatedNote, err := s.noteRepository.Update(storeCtx, note)
	if err != nil {
		return model.Note{}, storageError("update", err)
	}

	s.publish(EventUpdated, updatedNote)
	return updatedNote, nil
}

// Delete удаляет заметку по ID
func (s *service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &model.ValidationError{Field: "id", Message: "id cannot be empty"}
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.noteRepository.Delete(storeCtx, id); err != nil {
		return storageError("delete", err)
	}

	s.publish(EventDeleted, model.Note{ID: id})
	return nil
}

func (s *service) publish(t EventType, note model.Note) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{Type: t, Note: note, At: time.Now().UTC()})
}

// storageError приводит ошибку репозитория к таксономии model
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, model.ErrNoteNotFound):
		return model.ErrNoteNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, model.ErrStorageTimeout)
	}

	var se *model.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &model.StorageError{Op: op, Err: err}
}
