// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sethvargo/go-retry"

	"brandpress/internal/i18n"
	"brandpress/internal/lifecycle"
	"brandpress/internal/markdown"
	"brandpress/internal/models"
	"brandpress/internal/registry"
	"brandpress/internal/store"
)

// Public serves the read-only endpoints backing the marketing site:
// "does this path exist" and locale-resolved content views.
type Public struct {
	registry *registry.Registry
	manager  *lifecycle.Manager
	envelope *i18n.Envelope
}

// NewPublic creates the public handler group.
func NewPublic(reg *registry.Registry, manager *lifecycle.Manager, env *i18n.Envelope) *Public {
	return &Public{registry: reg, manager: manager, envelope: env}
}

// LookupSlug handles GET /slugs/{slug}. Transient store failures are
// retried with backoff — the lookup is a pure read, so a retry is always safe.
func (h *Public) LookupSlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var ref *models.ContentRef
	backoff := retry.WithMaxRetries(2, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(r.Context(), backoff, func(ctx context.Context) error {
		var lookupErr error
		ref, lookupErr = h.registry.Lookup(ctx, slug)
		if isRetryable(lookupErr) {
			return retry.RetryableError(lookupErr)
		}
		return lookupErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if ref == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Slug: slug})
		return
	}
	respondJSON(w, http.StatusOK, ref)
}

// resolvedView is the payload for a locale-resolved content view. Locales
// lists every language the item carries so site frontends can render a
// language switcher without a second request.
type resolvedView struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Slug     string    `json:"slug"`
	State    string    `json:"state"`
	View     i18n.View `json:"view"`
	Locales  []string  `json:"locales"`
	BodyHTML string    `json:"body_html,omitempty"`
}

// ResolveView handles GET /content/{id}/view?locale=xx. The locale
// envelope picks the payload (requested locale, else primary); the body is
// rendered from Markdown to HTML. When the item carries no usable locale
// at all, the response is an explicit no_content marker rather than an
// empty view.
func (h *Public) ResolveView(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.manager.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if item == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}

	view, found := h.envelope.Resolve(item.Locales, r.URL.Query().Get("locale"))
	if !found {
		respondJSON(w, http.StatusOK, map[string]any{
			"id":         item.ID,
			"no_content": true,
		})
		return
	}

	bodyHTML := ""
	if view.Body != "" {
		bodyHTML, err = markdown.ToHTML(view.Body)
		if err != nil {
			respondError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, resolvedView{
		ID:       item.ID.String(),
		Type:     string(item.Type),
		Slug:     item.Slug,
		State:    string(item.State),
		View:     view,
		Locales:  item.Locales.Codes(),
		BodyHTML: bodyHTML,
	})
}

// isRetryable reports whether the error is a transient store failure.
func isRetryable(err error) bool {
	return errors.Is(err, store.ErrUnavailable)
}
