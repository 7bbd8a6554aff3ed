// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"brandpress/internal/models"
	"brandpress/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// actorKey is the context key for the resolved actor identity.
	actorKey contextKey = "actor"
)

// LoadActor resolves the session cookie to an actor identity and stores it
// in the request context. Downstream handlers access it via ActorFromCtx().
// This middleware does NOT enforce authentication — requests without a
// valid session simply carry no actor.
func LoadActor(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Treat a session-store failure as unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				actor := data.Actor()
				ctx := context.WithValue(r.Context(), actorKey, &actor)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithActor injects a fixed actor into the request context. Used by tests.
func WithActor(actor models.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), actorKey, &actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects requests without a resolved actor. Every mutating
// content operation needs an identity to stamp into the audit fields.
// Must be applied after LoadActor in the middleware chain.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFromCtx(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthenticated"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the resolved actor is not an admin.
// Must be applied after RequireActor.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromCtx(r.Context())
		if actor == nil || actor.Role != models.RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ActorFromCtx extracts the actor identity from the request context.
// Returns nil if no actor is resolved (request is not authenticated).
func ActorFromCtx(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(actorKey).(*models.Actor)
	return actor
}
