package model

import (
	"strings"
	"time"
)

// Note представляет заметку (доменная модель)
type Note struct {
	ID        string    // UUID заметки, назначается хранилищем
	Title     string    // Заголовок заметки
	Content   string    // Содержание заметки
	CreatedAt time.Time // Дата создания
	UpdatedAt time.Time // Дата последнего обновления
}

// NewNote нормализует поля и проверяет их до обращения к хранилищу
func NewNote(title, content string) (Note, error) {
	note := Note{
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}
	if err := note.Validate(); err != nil {
		return Note{}, err
	}
	return note, nil
}

// Validate проверяет валидность заметки
func (n *Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return &ValidationError{Field: "title", Message: "title cannot be empty"}
	}
	if strings.TrimSpace(n.Content) == "" {
		return &ValidationError{Field: "content", Message: "content cannot be empty"}
	}
	return nil
}

// IsEmpty проверяет, пуста ли заметка
func (n *Note) IsEmpty() bool {
	return n.ID == "" && n.Title == "" && n.Content == ""
}
