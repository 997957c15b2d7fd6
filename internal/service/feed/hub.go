package feed

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/marvelous/backend/internal/model/character"
)

// EventType names the mutation an event reports.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

const subscriberBuffer = 16

// Event is pushed to subscribers after a mutation has been persisted.
type Event struct {
	ID          string               `json:"id"`
	Type        EventType            `json:"type"`
	CharacterID int                  `json:"characterId"`
	Character   *character.Character `json:"character,omitempty"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, characterID int, c *character.Character) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		CharacterID: characterID,
		Character:   c,
		OccurredAt:  time.Now().UTC(),
	}
}

// Hub fans events out to any number of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
}

// NewHub returns a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan Event)}
}

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (string, <-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

// Publish delivers event to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			log.Printf("[feed] subscriber %s is lagging, dropped %s event %s", id, event.Type, event.ID)
		}
	}
}

// Subscribers reports the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
