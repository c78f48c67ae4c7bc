package service

import (
	"context"

	"notes-api/internal/model"
)

// NoteService интерфейс для бизнес-логики работы с заметками
type NoteService interface {
	// Create создает новую заметку; пустые title или content дают *model.ValidationError
	Create(ctx context.Context, title, content string) (model.Note, error)

	// Get возвращает заметку по её ID
	Get(ctx context.Context, id string) (model.Note, error)

	// List возвращает все заметки, новые первыми
	List(ctx context.Context) ([]model.Note, error)

	// Update полностью заменяет title и content; валидация та же, что у Create
	Update(ctx context.Context, id, title, content string) (model.Note, error)

	// Delete удаляет заметку по ID
	Delete(ctx context.Context, id string) error
}
