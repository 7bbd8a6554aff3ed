package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brandpress/internal/analytics"
	"brandpress/internal/i18n"
	"brandpress/internal/lifecycle"
	"brandpress/internal/middleware"
	"brandpress/internal/models"
	"brandpress/internal/registry"
	"brandpress/internal/store/memory"
)

// testEnv wires the full handler surface over the in-memory store.
type testEnv struct {
	router  chi.Router
	manager *lifecycle.Manager
	actor   models.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memory.New()
	reg := registry.New(st)
	env := i18n.New("en")
	manager := lifecycle.New(st, reg, env, nil)
	gate := analytics.New(st, nil)

	content := NewContent(manager)
	public := NewPublic(reg, manager, env)
	visits := NewVisits(gate)

	actor := models.Actor{ID: uuid.New(), Name: "Test Editor", Role: models.RoleEditor}

	r := chi.NewRouter()
	r.Get("/slugs/{slug}", public.LookupSlug)
	r.Get("/content/{id}/view", public.ResolveView)
	r.Post("/visits", visits.Record)
	r.Group(func(r chi.Router) {
		r.Use(middleware.WithActor(actor))
		r.Use(middleware.RequireActor)
		r.Route("/admin/content/{type}", func(r chi.Router) {
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
	})

	return &testEnv{router: r, manager: manager, actor: actor}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func createPayload(slug, title string) map[string]any {
	return map[string]any{
		"slug": slug,
		"locales": map[string]any{
			"en": map[string]any{"title": title, "body": "Some **markdown** body."},
		},
	}
}

func TestContentCreate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/content/blog", createPayload("launch-2025", "Launch 2025"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var item models.ContentItem
	decodeBody(t, rec, &item)
	if item.Slug != "launch-2025" || item.State != models.ContentStateDraft {
		t.Errorf("item = %+v", item)
	}
	if item.UpdatedBy != env.actor.ID {
		t.Errorf("UpdatedBy = %s, want %s", item.UpdatedBy, env.actor.ID)
	}

	t.Run("unknown type", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/admin/content/page", createPayload("other", "Other"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("unknown body field rejected", func(t *testing.T) {
		payload := createPayload("strict", "Strict")
		payload["surprise"] = true
		rec := env.do(t, http.MethodPost, "/admin/content/blog", payload)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSlugConflictResponse(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/content/press", createPayload("launch-2025", "Launch"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d %s", rec.Code, rec.Body.String())
	}
	var press models.ContentItem
	decodeBody(t, rec, &press)

	rec = env.do(t, http.MethodPost, "/admin/content/blog", createPayload("launch-2025", "Recap"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var resp struct {
		Error  string             `json:"error"`
		Slug   string             `json:"slug"`
		Holder *models.ContentRef `json:"holder"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error != "slug_conflict" || resp.Slug != "launch-2025" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Holder == nil || resp.Holder.Type != models.ContentTypePress || resp.Holder.ID != press.ID {
		t.Errorf("holder = %+v, want the press release", resp.Holder)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/content/blog", createPayload("story", "A Story"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rec.Code)
	}
	var item models.ContentItem
	decodeBody(t, rec, &item)
	base := "/admin/content/blog/" + item.ID.String()

	rec = env.do(t, http.MethodPost, base+"/publish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var published models.ContentItem
	decodeBody(t, rec, &published)
	if published.State != models.ContentStatePublished {
		t.Errorf("State = %q", published.State)
	}

	// Deleting a published item is an invalid transition.
	rec = env.do(t, http.MethodDelete, base, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete published status = %d, want 409", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
		From  string `json:"from"`
	}
	decodeBody(t, rec, &errResp)
	if errResp.Error != "invalid_transition" || errResp.From != "published" {
		t.Errorf("error response = %+v", errResp)
	}

	rec = env.do(t, http.MethodPost, base+"/unpublish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unpublish status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base+"/archive", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete archived status = %d, want 204", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base+"/publish", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("publish deleted status = %d, want 404", rec.Code)
	}
}

func TestPublishValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/content/blog", map[string]any{
		"slug": "german-only",
		"locales": map[string]any{
			"de": map[string]any{"title": "Nur Deutsch"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rec.Code)
	}
	var item models.ContentItem
	decodeBody(t, rec, &item)

	rec = env.do(t, http.MethodPost, "/admin/content/blog/"+item.ID.String()+"/publish", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error != "missing_primary_locale" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSlugLookupEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/content/product", createPayload("spring-line", "Spring Line"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rec.Code)
	}
	var item models.ContentItem
	decodeBody(t, rec, &item)

	rec = env.do(t, http.MethodGet, "/slugs/spring-line", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ref models.ContentRef
	decodeBody(t, rec, &ref)
	if ref.Type != models.ContentTypeProduct || ref.ID != item.ID {
		t.Errorf("ref = %+v", ref)
	}

	rec = env.do(t, http.MethodGet, "/slugs/not-a-thing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing slug status = %d, want 404", rec.Code)
	}
}

func TestResolveViewEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/content/blog", map[string]any{
		"slug": "bilingual",
		"locales": map[string]any{
			"en": map[string]any{"title": "English Title", "body": "Hello **world**."},
			"de": map[string]any{"title": "Deutscher Titel"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rec.Code)
	}
	var item models.ContentItem
	decodeBody(t, rec, &item)
	viewPath := "/content/" + item.ID.String() + "/view"

	t.Run("requested locale", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, viewPath+"?locale=de", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp resolvedView
		decodeBody(t, rec, &resp)
		if resp.View.Locale != "de" || resp.View.Fallback {
			t.Errorf("view = %+v, want de without fallback", resp.View)
		}
		if got := strings.Join(resp.Locales, ","); got != "de,en" {
			t.Errorf("locales = %q, want sorted %q", got, "de,en")
		}
	})

	t.Run("fallback with rendered body", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, viewPath+"?locale=fr", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp resolvedView
		decodeBody(t, rec, &resp)
		if resp.View.Locale != "en" || !resp.View.Fallback {
			t.Errorf("view = %+v, want en fallback", resp.View)
		}
		if resp.BodyHTML == "" {
			t.Error("BodyHTML empty, want rendered markdown")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/content/"+uuid.NewString()+"/view", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestVisitEndpoint(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"session_id": "sess-1",
		"page":       "/products/spring-line",
		"timestamp":  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	rec := env.do(t, http.MethodPost, "/visits", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp visitResponse
	decodeBody(t, rec, &resp)
	if !resp.Inserted {
		t.Error("first visit not inserted")
	}

	rec = env.do(t, http.MethodPost, "/visits", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	decodeBody(t, rec, &resp)
	if resp.Inserted {
		t.Error("duplicate visit inserted")
	}

	t.Run("missing session id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/visits", map[string]any{"page": "/"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestVisitStatsEndpoint(t *testing.T) {
	st := memory.New()
	gate := analytics.New(st, nil)
	admin := NewAdmin(gate, nil)
	adminActor := models.Actor{ID: uuid.New(), Name: "Admin", Role: models.RoleAdmin}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.WithActor(adminActor))
		r.Use(middleware.RequireAdmin)
		r.Get("/admin/stats/visits", admin.VisitStats)
	})

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for _, session := range []string{"s1", "s2"} {
		if _, err := gate.RecordVisit(context.Background(), analytics.Event{SessionID: session, Timestamp: at}); err != nil {
			t.Fatalf("RecordVisit() error = %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/stats/visits?day=2025-06-01", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var stats visitStats
	decodeBody(t, rec, &stats)
	if stats.Day != "2025-06-01" || stats.Visits != 2 {
		t.Errorf("stats = %+v, want 2 visits on 2025-06-01", stats)
	}

	t.Run("malformed day", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/stats/visits?day=june-1st", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	admin := NewAdmin(analytics.New(memory.New(), nil), nil)
	editorActor := models.Actor{ID: uuid.New(), Name: "Editor", Role: models.RoleEditor}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.WithActor(editorActor))
		r.Use(middleware.RequireAdmin)
		r.Get("/admin/stats/visits", admin.VisitStats)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/stats/visits", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for editor", rec.Code)
	}
}

func TestRequireActor(t *testing.T) {
	st := memory.New()
	manager := lifecycle.New(st, registry.New(st), i18n.New("en"), nil)
	content := NewContent(manager)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Post("/admin/content/{type}", content.Create)
	})

	body, _ := json.Marshal(createPayload("blocked", "Blocked"))
	req := httptest.NewRequest(http.MethodPost, "/admin/content/blog", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
