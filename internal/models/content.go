// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentType identifies which of the marketing-site collections a content
// item belongs to. The type is fixed at creation and never changes.
type ContentType string

const (
	ContentTypeBlog       ContentType = "blog"
	ContentTypePress      ContentType = "press"
	ContentTypeBrandStory ContentType = "brand_story"
	ContentTypeProduct    ContentType = "product"
	ContentTypeHistory    ContentType = "history"
)

// ContentTypes lists all content collections in slug-lookup priority order.
// When legacy data holds the same slug in two collections, the first match
// in this order wins.
var ContentTypes = []ContentType{
	ContentTypeBlog,
	ContentTypePress,
	ContentTypeBrandStory,
	ContentTypeProduct,
	ContentTypeHistory,
}

// Valid reports whether ct is one of the known content collections.
func (ct ContentType) Valid() bool {
	for _, known := range ContentTypes {
		if ct == known {
			return true
		}
	}
	return false
}

// ContentState represents the publishing state of a content item.
type ContentState string

const (
	ContentStateDraft     ContentState = "draft"
	ContentStatePublished ContentState = "published"
	ContentStateArchived  ContentState = "archived"
)

// CanTransition reports whether moving from the current state to the target
// state is allowed. Forward moves are permitted, unpublish walks published
// back to draft, and any state may be archived. Archived is terminal.
func (s ContentState) CanTransition(to ContentState) bool {
	switch s {
	case ContentStateDraft:
		return to == ContentStatePublished || to == ContentStateArchived
	case ContentStatePublished:
		// Publish is idempotent, so published -> published is legal.
		return to == ContentStatePublished || to == ContentStateDraft || to == ContentStateArchived
	case ContentStateArchived:
		// Archive is idempotent, but nothing else leaves archived.
		return to == ContentStateArchived
	}
	return false
}

// ContentItem is the generalized entity behind blog posts, press releases,
// brand stories, products and company-history entries. All five collections
// share one slug namespace.
type ContentItem struct {
	ID        uuid.UUID    `json:"id"`
	Type      ContentType  `json:"type"`
	Slug      string       `json:"slug"`
	Locales   LocaleMap    `json:"locales"`
	State     ContentState `json:"state"`
	Tags      []string     `json:"tags,omitempty"`
	Ordering  *int         `json:"ordering,omitempty"` // history entries only; display sort
	UpdatedBy uuid.UUID    `json:"updated_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsPublished returns true if the item is in published state.
func (c *ContentItem) IsPublished() bool {
	return c.State == ContentStatePublished
}

// IsArchived returns true if the item has reached the terminal archived state.
func (c *ContentItem) IsArchived() bool {
	return c.State == ContentStateArchived
}

// ContentRef identifies which item currently holds a slug.
type ContentRef struct {
	Type ContentType `json:"type"`
	ID   uuid.UUID   `json:"id"`
	Slug string      `json:"slug"`
}

// String renders the reference as "type/slug" for logs and conflict messages.
func (r ContentRef) String() string {
	return string(r.Type) + "/" + r.Slug
}
