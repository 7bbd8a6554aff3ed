// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides the document-store abstraction backing all content
// collections, plus typed stores for users and the audit log. The document
// interface is deliberately narrow: collections of JSON documents addressed
// by id, with equality filters and an atomic insert-if-absent used as the
// slug uniqueness guard.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection names used by the core services.
const (
	CollectionBlog         = "blog"
	CollectionPress        = "press"
	CollectionBrandStory   = "brand_story"
	CollectionProduct      = "product"
	CollectionHistory      = "history"
	CollectionSlugRegistry = "slug_registry"
	CollectionVisits       = "visits"
)

var (
	// ErrDuplicateKey is returned by InsertUnique when another document in
	// the collection already holds the same value for the unique field.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUnavailable tags transient store failures (connection loss,
	// timeouts). Callers may retry pure reads; writes must restart from
	// their own consistency checks.
	ErrUnavailable = errors.New("store unavailable")
)

// Filter is a top-level-field equality filter over document payloads.
// Values must be JSON-comparable (strings, numbers, booleans).
type Filter map[string]any

// Document is a stored record. Data holds the JSON payload; the timestamps
// are store-assigned on write and authoritative over any timestamp fields
// the payload itself may carry.
type Document struct {
	ID        uuid.UUID
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the document-store contract consumed by the registry, lifecycle
// and analytics services. Lookups that find nothing return (nil, nil);
// errors are reserved for actual failures.
type Store interface {
	// Find returns all documents in the collection matching the filter.
	Find(ctx context.Context, collection string, filter Filter) ([]Document, error)

	// FindOne returns one matching document, or (nil, nil) when absent.
	FindOne(ctx context.Context, collection string, filter Filter) (*Document, error)

	// FindByID returns the document with the given id, or (nil, nil).
	FindByID(ctx context.Context, collection string, id uuid.UUID) (*Document, error)

	// Insert writes a new document under the given id and returns it with
	// store-assigned timestamps.
	Insert(ctx context.Context, collection string, id uuid.UUID, data []byte) (*Document, error)

	// InsertUnique behaves like Insert but fails with ErrDuplicateKey when
	// another document in the collection already carries the same value in
	// uniqueField. The check-and-insert is atomic with respect to concurrent
	// InsertUnique calls for the same value.
	InsertUnique(ctx context.Context, collection, uniqueField string, id uuid.UUID, data []byte) (*Document, error)

	// Update replaces the payload of an existing document and refreshes its
	// updated_at. Returns (nil, nil) when the id does not exist.
	Update(ctx context.Context, collection string, id uuid.UUID, data []byte) (*Document, error)

	// Delete removes a document by id, reporting whether one was removed.
	Delete(ctx context.Context, collection string, id uuid.UUID) (bool, error)

	// DeleteOne removes a single document matching the filter, reporting
	// whether one was removed.
	DeleteOne(ctx context.Context, collection string, filter Filter) (bool, error)
}

// markUnavailable tags a driver-level failure as transient so callers can
// apply the read-retry policy via errors.Is(err, ErrUnavailable).
func markUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, err))
}
