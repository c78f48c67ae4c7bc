package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"notes-api/internal/model"
	"notes-api/internal/repository"

	"github.com/google/uuid"
)

var _ repository.NoteRepository = (*repo)(nil)

type repo struct {
	mu    sync.RWMutex
	notes map[string]model.Note
	now   func() time.Time
}

// NewRepository создает новый экземпляр in-memory репозитория на основе map
func NewRepository() repository.NoteRepository {
	return &repo{
		notes: make(map[string]model.Note),
		now:   time.Now,
	}
}

// Create создает новую заметку и возвращает созданную заметку с ID
func (r *repo) Create(ctx context.Context, note model.Note) (model.Note, error) {
	if err := ctx.Err(); err != nil {
		return model.Note{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// UUID не переиспользуется даже после удаления
	note.ID = uuid.NewString()

	now := r.now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	r.notes[note.ID] = note

	return note, nil
}

// GetByID возвращает заметку по её ID
func (r *repo) GetByID(ctx context.Context, id string) (model.Note, error) {
	if err := ctx.Err(); err != nil {
		return model.Note{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	note, exists := r.notes[id]
	if !exists {
		return model.Note{}, model.ErrNoteNotFound
	}

	return note, nil
}

// List возвращает список всех заметок, отсортированный по дате создания (новые первыми)
func (r *repo) List(ctx context.Context) ([]model.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	notes := make([]model.Note, 0, len(r.notes))
	for _, note := range r.notes {
		notes = append(notes, note)
	}
	r.mu.RUnlock()

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].ID > notes[j].ID
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})

	return notes, nil
}

// Update обновляет существующую заметку и возвращает обновленную заметку
func (r *repo) Update(ctx context.Context, note model.Note) (model.Note, error) {
	if err := ctx.Err(); err != nil {
		return model.Note{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.notes[note.ID]
	if !exists {
		return model.Note{}, model.ErrNoteNotFound
	}

	existing.Title = note.Title
	existing.Content = note.Content
	existing.UpdatedAt = r.now().UTC()

	r.notes[note.ID] = existing

	return existing, nil
}

// Delete удаляет заметку по ID
func (r *repo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notes[id]; !exists {
		return model.ErrNoteNotFound
	}

	delete(r.notes, id)

	return nil
}
