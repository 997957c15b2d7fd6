package character

import (
	"context"

	"github.com/zhouzirui/marvelous/backend/internal/model/character"
	"github.com/zhouzirui/marvelous/backend/internal/service/feed"
)

// Publisher receives change events after a mutation succeeds.
type Publisher interface {
	Publish(event feed.Event)
}

// Service runs character use cases against a Store and announces mutations.
type Service struct {
	store     character.Store
	publisher Publisher
}

// NewService wires a Store and an optional Publisher.
func NewService(store character.Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// List returns the whole collection in stored order.
func (s *Service) List(ctx context.Context) ([]character.Character, error) {
	return s.store.List(ctx)
}

// Create stores a new character built from fields.
func (s *Service) Create(ctx context.Context, fields *character.Fields) (character.Character, error) {
	created, err := s.store.Create(ctx, fields)
	if err != nil {
		return character.Character{}, err
	}
	s.publish(feed.EventCreated, created.ID, &created)
	return created, nil
}

// Get returns one character by id.
func (s *Service) Get(ctx context.Context, id int) (character.Character, error) {
	return s.store.Get(ctx, id)
}

// Update merges fields into the character with id.
func (s *Service) Update(ctx context.Context, id int, fields *character.Fields) (character.Character, error) {
	updated, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return character.Character{}, err
	}
	s.publish(feed.EventUpdated, updated.ID, &updated)
	return updated, nil
}

// Delete removes the character with id.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(feed.EventDeleted, id, nil)
	return nil
}

func (s *Service) publish(eventType feed.EventType, id int, c *character.Character) {
	if s.publisher == nil {
		return
	}
	var snapshot *character.Character
	if c != nil {
		cloned := c.Clone()
		snapshot = &cloned
	}
	s.publisher.Publish(feed.NewEvent(eventType, id, snapshot))
}
