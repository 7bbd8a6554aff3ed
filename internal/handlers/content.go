// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brandpress/internal/lifecycle"
	"brandpress/internal/middleware"
	"brandpress/internal/models"
)

// Content handles the admin-facing content lifecycle endpoints.
type Content struct {
	manager *lifecycle.Manager
}

// NewContent creates the content handler group.
func NewContent(manager *lifecycle.Manager) *Content {
	return &Content{manager: manager}
}

type createRequest struct {
	Slug     string           `json:"slug"`
	Locales  models.LocaleMap `json:"locales"`
	Tags     []string         `json:"tags"`
	Ordering *int             `json:"ordering"`
}

type updateRequest struct {
	Slug     *string          `json:"slug"`
	Locales  models.LocaleMap `json:"locales"`
	Tags     *[]string        `json:"tags"`
	Ordering *int             `json:"ordering"`
}

// Create handles POST /admin/content/{type}.
func (h *Content) Create(w http.ResponseWriter, r *http.Request) {
	contentType := models.ContentType(chi.URLParam(r, "type"))

	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: err.Error()})
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	item, err := h.manager.Create(r.Context(), lifecycle.CreateInput{
		Type:     contentType,
		Slug:     req.Slug,
		Locales:  req.Locales,
		Tags:     req.Tags,
		Ordering: req.Ordering,
	}, *actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// List handles GET /admin/content/{type}.
func (h *Content) List(w http.ResponseWriter, r *http.Request) {
	contentType := models.ContentType(chi.URLParam(r, "type"))

	items, err := h.manager.List(r.Context(), contentType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Update handles PATCH /admin/content/{id}.
func (h *Content) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: err.Error()})
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	item, err := h.manager.Update(r.Context(), id, lifecycle.Patch{
		Slug:     req.Slug,
		Locales:  req.Locales,
		Tags:     req.Tags,
		Ordering: req.Ordering,
	}, *actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Publish handles POST /admin/content/{id}/publish.
func (h *Content) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.Publish)
}

// Unpublish handles POST /admin/content/{id}/unpublish.
func (h *Content) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.Unpublish)
}

// Archive handles POST /admin/content/{id}/archive.
func (h *Content) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.Archive)
}

// Delete handles DELETE /admin/content/{id}.
func (h *Content) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	if err := h.manager.Delete(r.Context(), id, *actor); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// transition runs one of the single-shot state-change operations.
func (h *Content) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.ContentItem, error)) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	item, err := op(r.Context(), id, *actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// itemID parses the {id} URL parameter, writing a 404 on malformed input.
func itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return uuid.Nil, false
	}
	return id, true
}
