// Package liststore holds the shared, ordered list of todo records that
// every item view reads from and writes back to.
package liststore

import (
	"context"
	"fmt"
	"sync"

	"github.com/idilsaglam/todo-remote/internal/model"
)

// Fetcher loads the authoritative list from the backend.
type Fetcher interface {
	List(ctx context.Context) ([]model.Record, error)
}

// Persister receives every list that replaced the previous one.
type Persister func([]model.Record) error

// Store is safe for concurrent use. Get always returns a copy; the held
// list is only ever swapped wholesale.
type Store struct {
	mu      sync.RWMutex
	records []model.Record
	fetcher Fetcher
	persist Persister
	onErr   func(error)
}

// Option configures a Store.
type Option func(*Store)

// WithFetcher sets the source used by Revalidate.
func WithFetcher(f Fetcher) Option {
	return func(s *Store) { s.fetcher = f }
}

// WithPersister sets a hook called after each replacement. Persist errors
// go to onErr (if set) and never undo the replacement.
func WithPersister(p Persister, onErr func(error)) Option {
	return func(s *Store) {
		s.persist = p
		s.onErr = onErr
	}
}

// New returns a Store holding a copy of initial.
func New(initial []model.Record, opts ...Option) *Store {
	s := &Store{records: clone(initial)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the current list.
func (s *Store) Get() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.records)
}

// Find returns the record with id.
func (s *Store) Find(id int) (model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.Record{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Replace swaps the whole list for a copy of records.
func (s *Store) Replace(records []model.Record) {
	next := clone(records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	s.afterReplace(next)
}

// Update applies fn to the current list and stores its result, holding the
// write lock for the duration so concurrent updates cannot lose each other.
func (s *Store) Update(fn func([]model.Record) []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := clone(fn(clone(s.records)))
	s.records = next
	s.afterReplace(next)
}

// Revalidate re-fetches the list and replaces the held one. On error the
// held list is left untouched.
func (s *Store) Revalidate(ctx context.Context) error {
	if s.fetcher == nil {
		return fmt.Errorf("revalidate: no fetcher configured")
	}
	records, err := s.fetcher.List(ctx)
	if err != nil {
		return fmt.Errorf("revalidate: %w", err)
	}
	s.Replace(records)
	return nil
}

// afterReplace runs with the write lock held so snapshots land in order.
func (s *Store) afterReplace(records []model.Record) {
	if s.persist == nil {
		return
	}
	if err := s.persist(records); err != nil && s.onErr != nil {
		s.onErr(err)
	}
}

// WithRecord returns list with the entry whose ID matches rec.ID replaced by
// rec. Order is preserved; list is returned unchanged if no entry matches.
func WithRecord(list []model.Record, rec model.Record) []model.Record {
	out := make([]model.Record, len(list))
	for i, r := range list {
		if r.ID == rec.ID {
			out[i] = rec
		} else {
			out[i] = r
		}
	}
	return out
}

// WithoutID returns list without the entry whose ID is id, order preserved.
func WithoutID(list []model.Record, id int) []model.Record {
	out := make([]model.Record, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func clone(in []model.Record) []model.Record {
	if in == nil {
		return []model.Record{}
	}
	out := make([]model.Record, len(in))
	copy(out, in)
	return out
}
