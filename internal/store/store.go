// ABOUTME: Append-only record store for canonical fault records
// ABOUTME: Keyed by stable id with listing helpers for components and models
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/harper/faultfinder/internal/models"
)

var (
	// ErrDuplicateID is returned when inserting a record id already present.
	ErrDuplicateID = errors.New("record id already present in store")

	// ErrNotFound is returned when removing an unknown record id.
	ErrNotFound = errors.New("record id not found in store")
)

// Store holds canonical fault records keyed by id. Records are append-only:
// corrections create new records, never in-place text mutation. Safe for
// many concurrent readers and one writer.
type Store struct {
	mu      sync.RWMutex
	records map[string]models.FaultRecord
	rowKeys map[string]string // dedup key -> record id
}

// New creates an empty record store.
func New() *Store {
	return &Store{
		records: make(map[string]models.FaultRecord),
		rowKeys: make(map[string]string),
	}
}

// rowKey is the incremental-ingestion dedup key: a row is already ingested
// when a record with the same component, model, and fault description exists.
func rowKey(component, model, faultDescription string) string {
	return component + "\x00" + model + "\x00" + faultDescription
}

// Insert adds a record. Fails with ErrDuplicateID if the id is taken.
func (s *Store) Insert(rec models.FaultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return ErrDuplicateID
	}
	s.records[rec.ID] = rec
	s.rowKeys[rowKey(rec.Component, rec.Model, rec.FaultDescription)] = rec.ID
	return nil
}

// Remove deletes a record by id. Used only by rollback and rebuild flows.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	key := rowKey(rec.Component, rec.Model, rec.FaultDescription)
	if s.rowKeys[key] == id {
		delete(s.rowKeys, key)
	}
	return nil
}

// Get returns the record for id.
func (s *Store) Get(id string) (models.FaultRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// HasRow reports whether a record with the same component, model, and fault
// description was already ingested.
func (s *Store) HasRow(component, model, faultDescription string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rowKeys[rowKey(component, model, faultDescription)]
	return ok
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every record ordered by creation time, then id.
func (s *Store) All() []models.FaultRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FaultRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Components returns the sorted unique component labels present in the store.
func (s *Store) Components() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range s.records {
		seen[rec.Component] = struct{}{}
	}
	return sortedKeys(seen)
}

// Models returns the sorted unique model labels under a component. Records
// without a model are not listed.
func (s *Store) Models(component string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range s.records {
		if rec.Component == component && rec.Model != "" {
			seen[rec.Model] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Reset discards all records. Used by rebuild flows only.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]models.FaultRecord)
	s.rowKeys = make(map[string]string)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
