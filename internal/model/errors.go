package model

import (
	"errors"
	"fmt"
)

// ErrNoteNotFound возвращается, когда заметка с указанным ID не существует
var ErrNoteNotFound = errors.New("note not found")

// ErrStorageTimeout возвращается, когда операция хранилища не уложилась в таймаут.
// Ошибка повторяемая: клиент может повторить запрос позже.
var ErrStorageTimeout = errors.New("storage operation timed out")

// ValidationError описывает невалидное поле входных данных
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError оборачивает сбой хранилища. Детали не уходят клиенту, только в лог.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation сообщает, является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
