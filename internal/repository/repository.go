package repository

import (
	"context"

	"notes-api/internal/model"
)

// NoteRepository интерфейс для работы с заметками в хранилище.
// Реализации возвращают model.ErrNoteNotFound, если заметки с таким ID нет.
type NoteRepository interface {
	// Create сохраняет новую заметку, назначает ей ID и временные метки
	Create(ctx context.Context, note model.Note) (model.Note, error)

	// GetByID возвращает заметку по её ID
	GetByID(ctx context.Context, id string) (model.Note, error)

	// List возвращает все заметки, новые первыми
	List(ctx context.Context) ([]model.Note, error)

	// Update полностью заменяет title и content существующей заметки
	Update(ctx context.Context, note model.Note) (model.Note, error)

	// Delete удаляет заметку по ID
	Delete(ctx context.Context, id string) error
}
