// Package gormrepo реализует repository.NoteRepository поверх gorm.
// Работает с PostgreSQL и SQLite, диалект выбирается в пакете db.
package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-api/internal/model"
	"notes-api/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// NoteRecord строка таблицы notes
type NoteRecord struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Title     string    `gorm:"type:text;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName фиксирует имя таблицы
func (NoteRecord) TableName() string { return "notes" }

func (r NoteRecord) toModel() model.Note {
	return model.Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

var _ repository.NoteRepository = (*Repository)(nil)

// Repository хранилище заметок в реляционной БД
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository создает репозиторий поверх открытого соединения
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Migrate создает или обновляет схему таблицы notes
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("gormrepo: nil connection")
	}
	if err := db.AutoMigrate(&NoteRecord{}); err != nil {
		return fmt.Errorf("gormrepo: migrate: %w", err)
	}
	return nil
}

// Create создает новую заметку
func (r *Repository) Create(ctx context.Context, note model.Note) (model.Note, error) {
	now := r.now().UTC()
	rec := NoteRecord{
		ID:        uuid.NewString(),
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return model.Note{}, wrapError("create", err)
	}
	return rec.toModel(), nil
}

// GetByID возвращает заметку по ID
func (r *Repository) GetByID(ctx context.Context, id string) (model.Note, error) {
	var rec NoteRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return model.Note{}, wrapError("get", err)
	}
	return rec.toModel(), nil
}

// List возвращает все заметки, новые первыми
func (r *Repository) List(ctx context.Context) ([]model.Note, error) {
	var recs []NoteRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, wrapError("list", err)
	}

	notes := make([]model.Note, 0, len(recs))
	for _, rec := range recs {
		notes = append(notes, rec.toModel())
	}
	return notes, nil
}

// Update заменяет title и content одной транзакцией и перечитывает строку
func (r *Repository) Update(ctx context.Context, note model.Note) (model.Note, error) {
	var rec NoteRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&NoteRecord{}).Where("id = ?", note.ID).Updates(map[string]any{
			"title":      note.Title,
			"content":    note.Content,
			"updated_at": r.now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", note.ID).First(&rec).Error
	})
	if err != nil {
		return model.Note{}, wrapError("update", err)
	}
	return rec.toModel(), nil
}

// Delete удаляет заметку по ID
func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&NoteRecord{})
	if res.Error != nil {
		return wrapError("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func wrapError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNoteNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &model.StorageError{Op: op, Err: fmt.Errorf("postgres %s: %w", pgErr.Code, err)}
	}
	return &model.StorageError{Op: op, Err: err}
}
