// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP surface over the content
// lifecycle, the slug registry, the locale envelope, and the analytics
// gate. Handlers stay thin: decode, call the service, translate the typed
// outcome to a status code.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"brandpress/internal/i18n"
	"brandpress/internal/lifecycle"
	"brandpress/internal/models"
	"brandpress/internal/registry"
	"brandpress/internal/store"
)

// errorResponse is the uniform error payload. Fields beyond Error are
// populated per error kind so the admin UI can present the exact problem
// (which slug, which holder) instead of a generic failure.
type errorResponse struct {
	Error  string             `json:"error"`
	Detail string             `json:"detail,omitempty"`
	Slug   string             `json:"slug,omitempty"`
	Holder *models.ContentRef `json:"holder,omitempty"`
	From   string             `json:"from,omitempty"`
	To     string             `json:"to,omitempty"`
	Locale string             `json:"locale,omitempty"`
	Field  string             `json:"field,omitempty"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// respondError maps a service error to its HTTP representation.
func respondError(w http.ResponseWriter, err error) {
	var conflict *registry.ConflictError
	if errors.As(err, &conflict) {
		respondJSON(w, http.StatusConflict, errorResponse{
			Error:  "slug_conflict",
			Slug:   conflict.Slug,
			Holder: &conflict.Holder,
		})
		return
	}

	var transition *lifecycle.InvalidTransitionError
	if errors.As(err, &transition) {
		respondJSON(w, http.StatusConflict, errorResponse{
			Error: "invalid_transition",
			From:  string(transition.From),
			To:    string(transition.To),
		})
		return
	}

	var field *i18n.FieldError
	if errors.As(err, &field) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation_error",
			Locale: field.Locale,
			Field:  field.Field,
			Detail: field.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
	case errors.Is(err, lifecycle.ErrMissingPrimaryLocale):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "missing_primary_locale",
			Detail: err.Error(),
		})
	case errors.Is(err, i18n.ErrNoLocales),
		errors.Is(err, lifecycle.ErrInvalidSlug),
		errors.Is(err, lifecycle.ErrUnknownContentType):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation_error",
			Detail: err.Error(),
		})
	case errors.Is(err, store.ErrUnavailable):
		slog.Error("store unavailable", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store_unavailable"})
	default:
		slog.Error("unhandled error", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
	}
}

// decodeJSON parses the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
