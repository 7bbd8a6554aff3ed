// Package router sets up all HTTP routes and middleware chains for the
// BrandPress content backend. It organizes routes into public and admin
// groups with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"brandpress/internal/handlers"
	"brandpress/internal/middleware"
	"brandpress/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, content *handlers.Content, public *handlers.Public, visits *handlers.Visits, auth *handlers.Auth, admin *handlers.Admin) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadActor(sessionStore))

	// Health check — no auth.
	r.Get("/health", healthHandler)

	// Public, read-only surface for the marketing site.
	r.Get("/slugs/{slug}", public.LookupSlug)
	r.Get("/content/{id}/view", public.ResolveView)

	// Page-view ingestion — rate-limited per client IP; visits arrive from
	// every site visitor, not just editors.
	visitLimiter := middleware.NewRateLimiter(60, time.Minute)
	r.With(visitLimiter.Middleware).Post("/visits", visits.Record)

	// Admin surface.
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		// Everything below needs a resolved actor for audit stamping.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor)

			r.Route("/content/{type}", func(r chi.Router) {
				r.Get("/", content.List)
				r.Post("/", content.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", content.Update)
					r.Delete("/", content.Delete)
					r.Post("/publish", content.Publish)
					r.Post("/unpublish", content.Unpublish)
					r.Post("/archive", content.Archive)
				})
			})

			// Dashboard: visit stats and the audit trail, admins only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/stats/visits", admin.VisitStats)
				r.Get("/audit", admin.AuditTrail)
			})
		})
	})

	return r
}

// healthHandler responds to load-balancer health checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
