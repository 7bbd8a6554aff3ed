// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memory provides an in-memory implementation of the document store
// for unit tests. All operations run under one mutex, which makes
// InsertUnique's check-and-insert atomic the same way the PostgreSQL unique
// index does.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"brandpress/internal/store"
)

type record struct {
	id        uuid.UUID
	data      []byte
	createdAt time.Time
	updatedAt time.Time
	seq       int64
}

// Store is an in-memory document store safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[uuid.UUID]*record
	seq         int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]map[uuid.UUID]*record)}
}

// matches reports whether the document payload contains every filter field
// with an equal value. Filter values are JSON-normalized first so that, for
// example, int and float64 compare equal the way they would in jsonb.
func matches(data []byte, filter store.Filter) bool {
	if len(filter) == 0 {
		return true
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}

	fb, err := json.Marshal(filter)
	if err != nil {
		return false
	}
	var want map[string]any
	if err := json.Unmarshal(fb, &want); err != nil {
		return false
	}

	for field, value := range want {
		got, ok := doc[field]
		if !ok || !reflect.DeepEqual(got, value) {
			return false
		}
	}
	return true
}

// fieldValue extracts a single top-level field from a JSON payload.
func fieldValue(data []byte, field string) (any, bool) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	v, ok := doc[field]
	return v, ok
}

// sorted returns the collection's matching records in insertion order.
func (s *Store) sorted(collection string, filter store.Filter) []*record {
	var recs []*record
	for _, r := range s.collections[collection] {
		if matches(r.data, filter) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	return recs
}

func toDocument(r *record) store.Document {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return store.Document{ID: r.id, Data: data, CreatedAt: r.createdAt, UpdatedAt: r.updatedAt}
}

// Find returns all matching documents in insertion order.
func (s *Store) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []store.Document
	for _, r := range s.sorted(collection, filter) {
		docs = append(docs, toDocument(r))
	}
	return docs, nil
}

// FindOne returns the oldest matching document, or nil.
func (s *Store) FindOne(ctx context.Context, collection string, filter store.Filter) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.sorted(collection, filter)
	if len(recs) == 0 {
		return nil, nil
	}
	d := toDocument(recs[0])
	return &d, nil
}

// FindByID returns the document with the given id, or nil.
func (s *Store) FindByID(ctx context.Context, collection string, id uuid.UUID) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	d := toDocument(r)
	return &d, nil
}

// Insert writes a new document.
func (s *Store) Insert(ctx context.Context, collection string, id uuid.UUID, data []byte) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(collection, id, data)
}

func (s *Store) insertLocked(collection string, id uuid.UUID, data []byte) (*store.Document, error) {
	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[uuid.UUID]*record)
		s.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return nil, fmt.Errorf("insert %s: %w", collection, store.ErrDuplicateKey)
	}

	now := time.Now().UTC()
	s.seq++
	r := &record{id: id, data: append([]byte(nil), data...), createdAt: now, updatedAt: now, seq: s.seq}
	coll[id] = r
	d := toDocument(r)
	return &d, nil
}

// InsertUnique inserts the document unless another one in the collection
// already holds the same value in uniqueField.
func (s *Store) InsertUnique(ctx context.Context, collection, uniqueField string, id uuid.UUID, data []byte) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := fieldValue(data, uniqueField)
	if ok {
		for _, r := range s.collections[collection] {
			if existing, has := fieldValue(r.data, uniqueField); has && reflect.DeepEqual(existing, value) {
				return nil, fmt.Errorf("insert %s: %w", collection, store.ErrDuplicateKey)
			}
		}
	}
	return s.insertLocked(collection, id, data)
}

// Update replaces an existing document's payload. Returns nil if absent.
func (s *Store) Update(ctx context.Context, collection string, id uuid.UUID, data []byte) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	r.data = append([]byte(nil), data...)
	r.updatedAt = time.Now().UTC()
	d := toDocument(r)
	return &d, nil
}

// Delete removes a document by id.
func (s *Store) Delete(ctx context.Context, collection string, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return false, nil
	}
	delete(s.collections[collection], id)
	return true, nil
}

// DeleteOne removes the oldest document matching the filter.
func (s *Store) DeleteOne(ctx context.Context, collection string, filter store.Filter) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.sorted(collection, filter)
	if len(recs) == 0 {
		return false, nil
	}
	delete(s.collections[collection], recs[0].id)
	return true, nil
}

var _ store.Store = (*Store)(nil)
