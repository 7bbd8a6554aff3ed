// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lifecycle implements the draft -> published -> archived state
// machine for content items. Every mutation goes through the slug registry
// before touching a slug, stamps the acting user for audit provenance, and
// writes exactly one document version (overwrite semantics — concurrent
// editors are last-write-wins, with actor and timestamp recorded for
// post-hoc audit).
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"brandpress/internal/i18n"
	"brandpress/internal/models"
	"brandpress/internal/registry"
	"brandpress/internal/slug"
	"brandpress/internal/store"
)

// AuditSink receives a best-effort record of every successful transition.
type AuditSink interface {
	Log(contentType string, itemID, actorID uuid.UUID, action string)
}

// Manager coordinates content state transitions across the document store
// and the slug registry.
type Manager struct {
	store    store.Store
	registry *registry.Registry
	envelope *i18n.Envelope
	audit    AuditSink // may be nil
}

// New creates a Manager. audit may be nil when no transition log is wanted.
func New(st store.Store, reg *registry.Registry, env *i18n.Envelope, audit AuditSink) *Manager {
	return &Manager{store: st, registry: reg, envelope: env, audit: audit}
}

// CreateInput carries the fields for a new content item.
type CreateInput struct {
	Type     models.ContentType
	Slug     string
	Locales  models.LocaleMap
	Tags     []string
	Ordering *int // history entries only
}

// Patch carries partial updates. Nil fields are left unchanged.
type Patch struct {
	Slug     *string
	Locales  models.LocaleMap
	Tags     *[]string
	Ordering *int
}

// Create validates the input, reserves the slug across all collections, and
// writes the item in draft state. A failed write releases the reservation
// so the slug does not leak.
func (m *Manager) Create(ctx context.Context, in CreateInput, actor models.Actor) (*models.ContentItem, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, in.Type)
	}

	s := slug.Normalize(in.Slug)
	if !slug.IsValid(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, in.Slug)
	}

	if err := m.envelope.Validate(in.Locales); err != nil {
		return nil, err
	}

	id := uuid.New()
	if err := m.registry.Reserve(ctx, s, in.Type, id); err != nil {
		return nil, err
	}

	item := &models.ContentItem{
		ID:        id,
		Type:      in.Type,
		Slug:      s,
		Locales:   in.Locales,
		State:     models.ContentStateDraft,
		Tags:      in.Tags,
		Ordering:  in.Ordering,
		UpdatedBy: actor.ID,
		UpdatedAt: time.Now().UTC(),
	}

	doc, err := m.insert(ctx, item)
	if err != nil {
		// The reservation must not outlive a failed write.
		if relErr := m.registry.Release(ctx, s, id); relErr != nil {
			slog.Warn("failed to release slug after aborted create",
				"slug", s, "item_id", id, "error", relErr)
		}
		return nil, err
	}

	m.logTransition(item, actor, "create")
	return applyDoc(item, doc), nil
}

// Update applies a patch to a draft or published item. A slug change is
// re-validated against the registry before anything is written; the old
// slug is released only after the new document version is stored, so the
// item is never reachable under no slug at all.
func (m *Manager) Update(ctx context.Context, id uuid.UUID, patch Patch, actor models.Actor) (*models.ContentItem, error) {
	item, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if item.IsArchived() {
		return nil, &InvalidTransitionError{Op: "update", From: item.State}
	}

	oldSlug := item.Slug
	newSlug := oldSlug
	if patch.Slug != nil {
		newSlug = slug.Normalize(*patch.Slug)
		if !slug.IsValid(newSlug) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, *patch.Slug)
		}
	}

	if patch.Locales != nil {
		if err := m.envelope.Validate(patch.Locales); err != nil {
			return nil, err
		}
		item.Locales = patch.Locales
	}
	if patch.Tags != nil {
		item.Tags = *patch.Tags
	}
	if patch.Ordering != nil {
		item.Ordering = patch.Ordering
	}

	if newSlug != oldSlug {
		if err := m.registry.Reserve(ctx, newSlug, item.Type, item.ID); err != nil {
			return nil, err
		}
		item.Slug = newSlug
	}

	item.UpdatedBy = actor.ID
	item.UpdatedAt = time.Now().UTC()

	doc, err := m.write(ctx, item)
	if err != nil {
		if newSlug != oldSlug {
			if relErr := m.registry.Release(ctx, newSlug, item.ID); relErr != nil {
				slog.Warn("failed to release slug after aborted update",
					"slug", newSlug, "item_id", item.ID, "error", relErr)
			}
		}
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	if newSlug != oldSlug {
		if err := m.registry.Release(ctx, oldSlug, item.ID); err != nil {
			slog.Warn("failed to release replaced slug",
				"slug", oldSlug, "item_id", item.ID, "error", err)
		}
	}

	m.logTransition(item, actor, "update")
	return applyDoc(item, doc), nil
}

// Publish moves a draft to published. The primary fallback locale must be
// present with a non-empty title. Publishing an already-published item is a
// no-op refresh of the audit stamps.
func (m *Manager) Publish(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.ContentItem, error) {
	return m.transition(ctx, id, models.ContentStatePublished, "publish", actor, func(item *models.ContentItem) error {
		if !m.envelope.HasPrimary(item.Locales) {
			return ErrMissingPrimaryLocale
		}
		return nil
	})
}

// Unpublish walks a published item back to draft. No field requirements.
func (m *Manager) Unpublish(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.ContentItem, error) {
	return m.transition(ctx, id, models.ContentStateDraft, "unpublish", actor, nil)
}

// Archive moves an item from any state to the terminal archived state and
// releases its slug for reuse. Idempotent.
func (m *Manager) Archive(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.ContentItem, error) {
	item, err := m.transition(ctx, id, models.ContentStateArchived, "archive", actor, nil)
	if err != nil {
		return nil, err
	}
	// Release after the state write: the slug only becomes reservable once
	// the item is durably archived. Release is idempotent, so re-archiving
	// is harmless.
	if err := m.registry.Release(ctx, item.Slug, item.ID); err != nil {
		slog.Warn("failed to release slug on archive",
			"slug", item.Slug, "item_id", item.ID, "error", err)
	}
	return item, nil
}

// Delete physically removes a draft or archived item and releases its slug.
// A published item must be unpublished or archived first — deleting it
// directly would silently break a live public URL.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	item, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	if item.IsPublished() {
		return &InvalidTransitionError{Op: "delete", From: item.State}
	}

	removed, err := m.store.Delete(ctx, string(item.Type), item.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", item.Type, err)
	}
	if !removed {
		return ErrNotFound
	}

	if err := m.registry.Release(ctx, item.Slug, item.ID); err != nil {
		slog.Warn("failed to release slug on delete",
			"slug", item.Slug, "item_id", item.ID, "error", err)
	}

	m.logTransition(item, actor, "delete")
	return nil
}

// Get resolves an item id across all content collections in priority order.
// Returns (nil, nil) when the id is unknown.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*models.ContentItem, error) {
	for _, contentType := range models.ContentTypes {
		doc, err := m.store.FindByID(ctx, string(contentType), id)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", contentType, err)
		}
		if doc == nil {
			continue
		}
		item, err := decodeItem(doc, contentType)
		if err != nil {
			return nil, err
		}
		return item, nil
	}
	return nil, nil
}

// List returns all items of one collection, oldest first.
func (m *Manager) List(ctx context.Context, contentType models.ContentType) ([]models.ContentItem, error) {
	if !contentType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	docs, err := m.store.Find(ctx, string(contentType), nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", contentType, err)
	}

	items := make([]models.ContentItem, 0, len(docs))
	for i := range docs {
		item, err := decodeItem(&docs[i], contentType)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// transition implements the shared read-check-write cycle. Re-entering
// published or archived is an idempotent stamp refresh; anything the state
// machine forbids is an InvalidTransitionError.
func (m *Manager) transition(ctx context.Context, id uuid.UUID, to models.ContentState, op string, actor models.Actor, guard func(*models.ContentItem) error) (*models.ContentItem, error) {
	item, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	if !item.State.CanTransition(to) {
		return nil, &InvalidTransitionError{Op: op, From: item.State, To: to}
	}

	if guard != nil {
		if err := guard(item); err != nil {
			return nil, err
		}
	}

	item.State = to
	item.UpdatedBy = actor.ID
	item.UpdatedAt = time.Now().UTC()

	doc, err := m.write(ctx, item)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	m.logTransition(item, actor, op)
	return applyDoc(item, doc), nil
}

// insert writes a brand-new document for the item.
func (m *Manager) insert(ctx context.Context, item *models.ContentItem) (*store.Document, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s item: %w", item.Type, err)
	}
	doc, err := m.store.Insert(ctx, string(item.Type), item.ID, data)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", item.Type, err)
	}
	return doc, nil
}

// write overwrites the item's document.
func (m *Manager) write(ctx context.Context, item *models.ContentItem) (*store.Document, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s item: %w", item.Type, err)
	}
	doc, err := m.store.Update(ctx, string(item.Type), item.ID, data)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", item.Type, err)
	}
	return doc, nil
}

// logTransition feeds the audit sink, if one is configured.
func (m *Manager) logTransition(item *models.ContentItem, actor models.Actor, action string) {
	if m.audit == nil {
		return
	}
	m.audit.Log(string(item.Type), item.ID, actor.ID, action)
}

// decodeItem turns a stored document back into a ContentItem. The envelope
// timestamps are authoritative over whatever the payload carries.
func decodeItem(doc *store.Document, contentType models.ContentType) (*models.ContentItem, error) {
	item := &models.ContentItem{}
	if err := json.Unmarshal(doc.Data, item); err != nil {
		return nil, fmt.Errorf("decode %s item: %w", contentType, err)
	}
	item.Type = contentType
	return applyDoc(item, doc), nil
}

// applyDoc copies store-assigned identity and timestamps onto the item.
func applyDoc(item *models.ContentItem, doc *store.Document) *models.ContentItem {
	item.ID = doc.ID
	item.CreatedAt = doc.CreatedAt
	item.UpdatedAt = doc.UpdatedAt
	return item
}
