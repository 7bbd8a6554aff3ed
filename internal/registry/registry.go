// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package registry enforces global slug uniqueness across all content
// collections. The five collections share one URL namespace, so a slug held
// by a non-archived press release blocks the same slug on a blog post.
//
// Uniqueness is guarded by a dedicated registry collection with an atomic
// insert-if-absent on the slug field. A plain check-then-write would race
// between two concurrent creators; the registry insert is the single point
// where exactly one of them can win.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"brandpress/internal/models"
	"brandpress/internal/store"
)

// ConflictError reports that a slug is already held by another non-archived
// content item. The holder is included so the admin surface can show the
// editor exactly what is in the way.
type ConflictError struct {
	Slug   string
	Holder models.ContentRef
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slug %q already in use by %s", e.Slug, e.Holder)
}

// entry is a registry document: one per reserved slug. reservedAt is the
// store-assigned creation time of the entry, not part of the payload.
type entry struct {
	Slug        string             `json:"slug"`
	ContentType models.ContentType `json:"content_type"`
	ItemID      uuid.UUID          `json:"item_id"`

	reservedAt time.Time
}

func (e *entry) ref() models.ContentRef {
	return models.ContentRef{Type: e.ContentType, ID: e.ItemID, Slug: e.Slug}
}

const (
	// reserveAttempts bounds the re-read/insert cycle in Reserve. A second
	// pass is only needed when the competing entry disappears between the
	// failed insert and the re-read.
	reserveAttempts = 4

	// reclaimGrace is how long a registry entry whose holder document is
	// missing stays protected. A missing holder is either a crash between
	// reserve and write, or a create still in flight — the registry cannot
	// tell them apart, so the entry only becomes reclaimable once no
	// in-flight create could still be running.
	reclaimGrace = 2 * time.Minute
)

// Registry answers "is this slug free" and "who holds it" across all
// content collections.
type Registry struct {
	store        store.Store
	reclaimGrace time.Duration
}

// New creates a Registry backed by the given document store.
func New(st store.Store) *Registry {
	return &Registry{store: st, reclaimGrace: reclaimGrace}
}

// Reserve claims a slug for the given item. It is idempotent for the same
// item, so re-saving an item with its current slug succeeds. An entry whose
// registered holder is archived is reclaimable immediately; an entry with
// no holder document at all is reclaimable only after the grace window,
// since a fresh one belongs to a create that has reserved but not yet
// written its item.
func (r *Registry) Reserve(ctx context.Context, slug string, contentType models.ContentType, itemID uuid.UUID) error {
	data, err := json.Marshal(entry{Slug: slug, ContentType: contentType, ItemID: itemID})
	if err != nil {
		return fmt.Errorf("marshal registry entry: %w", err)
	}

	for attempt := 0; attempt < reserveAttempts; attempt++ {
		existing, err := r.findEntry(ctx, slug)
		if err != nil {
			return err
		}

		if existing != nil {
			if existing.ItemID == itemID {
				return nil
			}

			stale, err := r.reclaimable(ctx, existing)
			if err != nil {
				return err
			}
			if !stale {
				return &ConflictError{Slug: slug, Holder: existing.ref()}
			}

			// Stale entry: remove it keyed on the old holder, so a
			// concurrent takeover only succeeds once.
			if _, err := r.store.DeleteOne(ctx, store.CollectionSlugRegistry, store.Filter{
				"slug":    slug,
				"item_id": existing.ItemID.String(),
			}); err != nil {
				return fmt.Errorf("reclaim stale slug %q: %w", slug, err)
			}
		}

		_, err = r.store.InsertUnique(ctx, store.CollectionSlugRegistry, "slug", uuid.New(), data)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return fmt.Errorf("reserve slug %q: %w", slug, err)
		}
		// Lost the insert race. Loop: the re-read either reports the winner
		// as a conflict, or finds nothing (winner already released) and
		// tries the insert again. Success always means an entry was written
		// for this item; it is never inferred from an empty re-read.
	}

	return fmt.Errorf("reserve slug %q: contention retries exhausted", slug)
}

// Release frees a slug held by the given item. Releasing a slug the item no
// longer holds is a no-op, so archive and delete stay idempotent.
func (r *Registry) Release(ctx context.Context, slug string, itemID uuid.UUID) error {
	_, err := r.store.DeleteOne(ctx, store.CollectionSlugRegistry, store.Filter{
		"slug":    slug,
		"item_id": itemID.String(),
	})
	if err != nil {
		return fmt.Errorf("release slug %q: %w", slug, err)
	}
	return nil
}

// Lookup returns the content reference currently holding a non-archived
// slug, or nil when the path does not exist. Collections are scanned in
// fixed priority order; if legacy data holds the same slug in more than one
// collection the first match wins and the condition is surfaced as a
// data-integrity warning, never silently repaired.
func (r *Registry) Lookup(ctx context.Context, slug string) (*models.ContentRef, error) {
	var holders []models.ContentRef

	for _, contentType := range models.ContentTypes {
		docs, err := r.store.Find(ctx, string(contentType), store.Filter{"slug": slug})
		if err != nil {
			return nil, fmt.Errorf("lookup slug %q: %w", slug, err)
		}
		for _, doc := range docs {
			var item models.ContentItem
			if err := json.Unmarshal(doc.Data, &item); err != nil {
				return nil, fmt.Errorf("decode %s item: %w", contentType, err)
			}
			if item.IsArchived() {
				continue
			}
			holders = append(holders, models.ContentRef{Type: contentType, ID: doc.ID, Slug: slug})
		}
	}

	if len(holders) == 0 {
		return nil, nil
	}
	if len(holders) > 1 {
		slog.Warn("data integrity: slug held by multiple non-archived items",
			"slug", slug,
			"holders", len(holders),
			"winner", holders[0].String(),
		)
	}
	return &holders[0], nil
}

// findEntry loads the registry document for a slug, or nil.
func (r *Registry) findEntry(ctx context.Context, slug string) (*entry, error) {
	doc, err := r.store.FindOne(ctx, store.CollectionSlugRegistry, store.Filter{"slug": slug})
	if err != nil {
		return nil, fmt.Errorf("find registry entry %q: %w", slug, err)
	}
	if doc == nil {
		return nil, nil
	}
	e := &entry{}
	if err := json.Unmarshal(doc.Data, e); err != nil {
		return nil, fmt.Errorf("decode registry entry %q: %w", slug, err)
	}
	e.reservedAt = doc.CreatedAt
	return e, nil
}

// reclaimable reports whether a registry entry no longer protects a live
// item. An archived holder released its slug by definition (the release
// write may have been lost in a crash). A missing holder is ambiguous —
// crash or in-flight create — so the entry stays protected through the
// grace window.
func (r *Registry) reclaimable(ctx context.Context, e *entry) (bool, error) {
	doc, err := r.store.FindByID(ctx, string(e.ContentType), e.ItemID)
	if err != nil {
		return false, fmt.Errorf("check slug holder %s: %w", e.ItemID, err)
	}
	if doc == nil {
		return time.Since(e.reservedAt) >= r.reclaimGrace, nil
	}
	var item models.ContentItem
	if err := json.Unmarshal(doc.Data, &item); err != nil {
		return false, fmt.Errorf("decode slug holder %s: %w", e.ItemID, err)
	}
	return item.IsArchived(), nil
}
