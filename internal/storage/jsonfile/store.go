// Package jsonfile persists the character collection as a single JSON
// document of the form {"characters": [...]}.
//
// Every operation re-reads the whole file and mutations rewrite it in full.
// Operations are serialized inside one process; nothing coordinates separate
// processes sharing the same file, and a failed write can leave the file
// truncated.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/zhouzirui/marvelous/backend/internal/model/character"
)

type document struct {
	Characters *[]character.Character `json:"characters"`
}

// Store implements character.Store over one JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ character.Store = (*Store)(nil)

// New binds a Store to path. The file is not touched until the first call.
func New(path string) *Store {
	return &Store{path: path}
}

// Path reports the backing file.
func (s *Store) Path() string {
	return s.path
}

// Ensure writes an empty collection to path when no file exists there yet.
// It reports whether a file was created.
func Ensure(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: stat %s: %v", character.ErrIO, path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("%w: create %s: %v", character.ErrIO, dir, err)
		}
	}
	if err := write(path, []character.Character{}); err != nil {
		return false, err
	}
	return true, nil
}

// List returns all characters in file order.
func (s *Store) List(ctx context.Context) ([]character.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", character.ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return read(s.path)
}

// Create appends a character with the next free id and rewrites the file.
func (s *Store) Create(ctx context.Context, fields *character.Fields) (character.Character, error) {
	if err := ctx.Err(); err != nil {
		return character.Character{}, fmt.Errorf("%w: %v", character.ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := read(s.path)
	if err != nil {
		return character.Character{}, err
	}

	next, err := character.NextID(items)
	if err != nil {
		return character.Character{}, err
	}
	created := character.New(next, fields)
	items = append(items, created)
	if err := write(s.path, items); err != nil {
		return character.Character{}, err
	}
	return created, nil
}

// Get looks up a character by id.
func (s *Store) Get(ctx context.Context, id int) (character.Character, error) {
	if err := ctx.Err(); err != nil {
		return character.Character{}, fmt.Errorf("%w: %v", character.ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := read(s.path)
	if err != nil {
		return character.Character{}, err
	}
	idx := character.IndexOf(items, id)
	if idx < 0 {
		return character.Character{}, fmt.Errorf("get %d: %w", id, character.ErrNotFound)
	}
	return items[idx], nil
}

// Update merges fields over the stored character and rewrites the file.
func (s *Store) Update(ctx context.Context, id int, fields *character.Fields) (character.Character, error) {
	if err := ctx.Err(); err != nil {
		return character.Character{}, fmt.Errorf("%w: %v", character.ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := read(s.path)
	if err != nil {
		return character.Character{}, err
	}
	idx := character.IndexOf(items, id)
	if idx < 0 {
		return character.Character{}, fmt.Errorf("update %d: %w", id, character.ErrNotFound)
	}

	items[idx] = items[idx].Merge(fields)
	if err := write(s.path, items); err != nil {
		return character.Character{}, err
	}
	return items[idx], nil
}

// Delete removes the character with id. The file is left untouched when no
// entry matches.
func (s *Store) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", character.ErrIO, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := read(s.path)
	if err != nil {
		return err
	}
	filtered, found := character.Remove(items, id)
	if !found {
		return fmt.Errorf("delete %d: %w", id, character.ErrNotFound)
	}
	return write(s.path, filtered)
}

func read(path string) ([]character.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", character.ErrIO, path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", character.ErrParse, path, err)
	}
	if doc.Characters == nil {
		return nil, fmt.Errorf("%w: %s has no characters array", character.ErrParse, path)
	}
	return *doc.Characters, nil
}

func write(path string, items []character.Character) error {
	data, err := json.MarshalIndent(document{Characters: &items}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", character.ErrIO, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", character.ErrIO, path, err)
	}
	return nil
}
