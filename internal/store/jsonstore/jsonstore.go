package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idilsaglam/todo-remote/internal/model"
)

// JSON-backed snapshot of the last list the backend confirmed.
// Single file, human-readable. Written via a temp file and rename so a
// reader never sees a half-written snapshot.

// Store reads and writes the snapshot at Path.
type Store struct {
	Path string
}

// New returns a Store for path.
func New(path string) *Store { return &Store{Path: path} }

// Load returns the snapshot, or an empty list if none was written yet.
func (s *Store) Load() ([]model.Record, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var items []model.Record
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if items == nil {
		items = []model.Record{}
	}
	return items, nil
}

// Save overwrites the snapshot with items.
func (s *Store) Save(items []model.Record) error {
	if items == nil {
		items = []model.Record{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
