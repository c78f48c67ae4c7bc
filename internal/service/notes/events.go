package notes

import (
	"sync"
	"time"

	"notes-api/internal/model"
)

// EventType тип изменения заметки
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event изменение заметки. Для EventDeleted заполнен только Note.ID.
type Event struct {
	Type EventType
	Note model.Note
	At   time.Time
}

// EventService управляет подписчиками на изменения заметок
type EventService struct {
	subscribers map[chan Event]bool
	mu          sync.RWMutex
}

// NewEventService создает новый экземпляр EventService
func NewEventService() *EventService {
	return &EventService{
		subscribers: make(map[chan Event]bool),
	}
}

// Subscribe добавляет нового подписчика и возвращает канал для получения событий
func (s *EventService) Subscribe() chan Event {
	ch := make(chan Event, 10)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[ch] = true
	return ch
}

// Unsubscribe удаляет подписчика и закрывает его канал
func (s *EventService) Unsubscribe(ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		close(ch)
		delete(s.subscribers, ch)
	}
}

// Publish отправляет событие всем подписчикам.
// Переполненный канал подписчика пропускает событие, запись заметки не блокируется.
func (s *EventService) Publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers количество активных подписчиков
func (s *EventService) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
