// Package memstore is an in-process storage backend used as a test double by
// the facade, service and handler tests.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/storage"
)

// Store keeps every collection in memory.
type Store struct {
	mu       sync.RWMutex
	data     map[storage.Collection][]storage.Record
	settings storage.Record
	now      func() time.Time

	// Validate, when set, may reject a record before it is written.
	Validate func(coll storage.Collection, rec storage.Record) error
	// Unready, when set, is returned by Ready.
	Unready error
}

// New returns an empty store.
func New() *Store {
	return &Store{data: make(map[storage.Collection][]storage.Record), now: time.Now}
}

// Kind implements storage.Backend.
func (s *Store) Kind() storage.Kind { return storage.KindMemory }

// Ready implements storage.Backend.
func (s *Store) Ready(context.Context) error { return s.Unready }

// List implements storage.Backend.
func (s *Store) List(_ context.Context, coll storage.Collection, f storage.Filter) ([]storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storage.Select(s.data[coll], f), nil
}

// Get implements storage.Backend.
func (s *Store) Get(_ context.Context, coll storage.Collection, id string) (storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := storage.FindIndex(s.data[coll], id)
	if i < 0 {
		return nil, fmt.Errorf("%s %s: %w", coll, id, apperr.ErrNotFound)
	}
	return storage.CloneRecord(s.data[coll][i]), nil
}

// Insert implements storage.Backend.
func (s *Store) Insert(_ context.Context, coll storage.Collection, rec storage.Record, uniqueBy ...string) (storage.Record, error) {
	if err := s.validate(coll, rec); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, saved, err := storage.InsertDocument(s.data[coll], rec, s.now(), uniqueBy)
	if err != nil {
		return nil, err
	}
	s.data[coll] = next
	return saved, nil
}

// Update implements storage.Backend.
func (s *Store) Update(_ context.Context, coll storage.Collection, id string, patch storage.Record) (storage.Record, error) {
	if err := s.validate(coll, patch); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, saved, err := storage.UpdateDocument(s.data[coll], id, patch, s.now())
	if err != nil {
		return nil, err
	}
	s.data[coll] = next
	return saved, nil
}

// Delete implements storage.Backend.
func (s *Store) Delete(_ context.Context, coll storage.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := storage.DeleteDocument(s.data[coll], id)
	if err != nil {
		return err
	}
	s.data[coll] = next
	return nil
}

// DeleteWhere implements storage.Backend.
func (s *Store) DeleteWhere(_ context.Context, coll storage.Collection, f storage.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, n := storage.DeleteDocuments(s.data[coll], f)
	s.data[coll] = next
	return n, nil
}

// LoadSettings implements storage.SettingsStore.
func (s *Store) LoadSettings(context.Context) (storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := storage.CloneRecord(s.settings)
	if out == nil {
		out = storage.Record{}
	}
	return out, nil
}

// SaveSettings implements storage.SettingsStore.
func (s *Store) SaveSettings(_ context.Context, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = storage.CloneRecord(rec)
	return nil
}

// Len returns the number of records in coll.
func (s *Store) Len(coll storage.Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[coll])
}

func (s *Store) validate(coll storage.Collection, rec storage.Record) error {
	if s.Validate == nil {
		return nil
	}
	if err := s.Validate(coll, rec); err != nil {
		return fmt.Errorf("%s: %w: %w", coll, apperr.ErrConstraintViolation, err)
	}
	return nil
}

var (
	_ storage.Backend       = (*Store)(nil)
	_ storage.SettingsStore = (*Store)(nil)
)
