package character

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// Store exposes durable CRUD over the character collection.
type Store interface {
	List(ctx context.Context) ([]Character, error)
	Create(ctx context.Context, fields *Fields) (Character, error)
	Get(ctx context.Context, id int) (Character, error)
	Update(ctx context.Context, id int, fields *Fields) (Character, error)
	Delete(ctx context.Context, id int) error
}

// NextID returns the max existing id plus one, or 1 for an empty collection.
// Stored ids may be zero or negative; they still count toward the max.
func NextID(items []Character) (int, error) {
	if len(items) == 0 {
		return 1, nil
	}
	maxID := items[0].ID
	for _, item := range items[1:] {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	if maxID == math.MaxInt {
		return 0, ErrIDExhausted
	}
	return maxID + 1, nil
}

// IndexOf returns the position of id in items, or -1.
func IndexOf(items []Character, id int) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Remove returns items without the entry carrying id, and whether one was found.
func Remove(items []Character, id int) ([]Character, bool) {
	filtered := make([]Character, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	return filtered, len(filtered) != len(items)
}

// MemoryStore implements Store with an in-memory slice. It mirrors the file
// store semantics and is meant for tests and throwaway runs.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Character
}

// NewMemoryStore returns a MemoryStore preloaded with copies of items.
func NewMemoryStore(items []Character) *MemoryStore {
	return &MemoryStore{items: cloneAll(items)}
}

// List returns every character in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.items), nil
}

// Create appends a character with the next free id.
func (s *MemoryStore) Create(ctx context.Context, fields *Fields) (Character, error) {
	if err := ctx.Err(); err != nil {
		return Character{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := NextID(s.items)
	if err != nil {
		return Character{}, err
	}
	created := New(next, fields)
	s.items = append(s.items, created)
	return created.Clone(), nil
}

// Get looks up a character by id.
func (s *MemoryStore) Get(ctx context.Context, id int) (Character, error) {
	if err := ctx.Err(); err != nil {
		return Character{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := IndexOf(s.items, id)
	if idx < 0 {
		return Character{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return s.items[idx].Clone(), nil
}

// Update merges fields over the character with id.
func (s *MemoryStore) Update(ctx context.Context, id int, fields *Fields) (Character, error) {
	if err := ctx.Err(); err != nil {
		return Character{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := IndexOf(s.items, id)
	if idx < 0 {
		return Character{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	s.items[idx] = s.items[idx].Merge(fields)
	return s.items[idx].Clone(), nil
}

// Delete removes the character with id.
func (s *MemoryStore) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered, found := Remove(s.items, id)
	if !found {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	s.items = filtered
	return nil
}

func cloneAll(items []Character) []Character {
	out := make([]Character, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
