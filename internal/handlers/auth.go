// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"brandpress/internal/session"
	"brandpress/internal/store"
)

// Auth implements the session-based actor resolver: login exchanges
// credentials for a session cookie, and the session is what the actor
// middleware resolves on every later request.
type Auth struct {
	sessions *session.Store
	users    *store.UserStore
}

// NewAuth creates the auth handler group.
func NewAuth(sessions *session.Store, users *store.UserStore) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /admin/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: err.Error()})
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		// Same response for unknown email and wrong password.
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid_credentials"})
		return
	}

	_, err = h.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	respondJSON(w, http.StatusOK, user)
}

// Logout handles POST /admin/logout.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
