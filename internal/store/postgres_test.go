package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestDocumentStoreCRUD(t *testing.T) {
	db := testDB(t)
	st := NewDocumentStore(db)
	ctx := context.Background()

	t.Cleanup(func() { cleanDocuments(t, db, "pg-crud-test") })

	id := uuid.New()
	doc, err := st.Insert(ctx, CollectionBlog, id, []byte(`{"slug":"pg-crud-test","state":"draft"}`))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if doc.ID != id {
		t.Errorf("ID = %s, want %s", doc.ID, id)
	}
	if doc.CreatedAt.IsZero() {
		t.Error("CreatedAt not assigned")
	}

	got, err := st.FindByID(ctx, CollectionBlog, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("FindByID() = nil")
	}

	// Containment filter on the jsonb payload.
	one, err := st.FindOne(ctx, CollectionBlog, Filter{"slug": "pg-crud-test", "state": "draft"})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if one == nil {
		t.Fatal("FindOne() by filter = nil")
	}

	updated, err := st.Update(ctx, CollectionBlog, id, []byte(`{"slug":"pg-crud-test","state":"published"}`))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated == nil {
		t.Fatal("Update() = nil")
	}
	if !updated.CreatedAt.Equal(doc.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}

	stale, err := st.FindOne(ctx, CollectionBlog, Filter{"slug": "pg-crud-test", "state": "draft"})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if stale != nil {
		t.Error("old payload still matches after update")
	}

	removed, err := st.Delete(ctx, CollectionBlog, id)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !removed {
		t.Error("Delete() = false")
	}
	removed, err = st.Delete(ctx, CollectionBlog, id)
	if err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if removed {
		t.Error("second Delete() = true")
	}
}

func TestDocumentStoreCollectionsIsolated(t *testing.T) {
	db := testDB(t)
	st := NewDocumentStore(db)
	ctx := context.Background()

	t.Cleanup(func() { cleanDocuments(t, db, "pg-isolation-test") })

	id := uuid.New()
	if _, err := st.Insert(ctx, CollectionPress, id, []byte(`{"slug":"pg-isolation-test"}`)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := st.FindByID(ctx, CollectionBlog, id)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got != nil {
		t.Error("press document visible in blog collection")
	}
}

// TestDocumentStoreSlugRegistryUnique exercises the partial unique index on
// the registry collection: the second insert with the same slug must fail
// with ErrDuplicateKey, while other collections accept duplicate slugs.
func TestDocumentStoreSlugRegistryUnique(t *testing.T) {
	db := testDB(t)
	st := NewDocumentStore(db)
	ctx := context.Background()

	t.Cleanup(func() { cleanDocuments(t, db, "pg-unique-test") })

	if _, err := st.InsertUnique(ctx, CollectionSlugRegistry, "slug", uuid.New(), []byte(`{"slug":"pg-unique-test"}`)); err != nil {
		t.Fatalf("InsertUnique() error = %v", err)
	}

	_, err := st.InsertUnique(ctx, CollectionSlugRegistry, "slug", uuid.New(), []byte(`{"slug":"pg-unique-test"}`))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate InsertUnique() error = %v, want ErrDuplicateKey", err)
	}

	// Content collections are not covered by the registry index.
	a, b := uuid.New(), uuid.New()
	if _, err := st.Insert(ctx, CollectionBlog, a, []byte(`{"slug":"pg-unique-test"}`)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := st.Insert(ctx, CollectionBlog, b, []byte(`{"slug":"pg-unique-test"}`)); err != nil {
		t.Errorf("second blog Insert() error = %v, want duplicate slugs allowed", err)
	}
}

func TestDocumentStoreDeleteOne(t *testing.T) {
	db := testDB(t)
	st := NewDocumentStore(db)
	ctx := context.Background()

	t.Cleanup(func() { cleanDocuments(t, db, "pg-deleteone-test") })

	id := uuid.New()
	if _, err := st.InsertUnique(ctx, CollectionSlugRegistry, "slug", id, []byte(`{"slug":"pg-deleteone-test","item_id":"`+uuid.New().String()+`"}`)); err != nil {
		t.Fatalf("InsertUnique() error = %v", err)
	}

	removed, err := st.DeleteOne(ctx, CollectionSlugRegistry, Filter{"slug": "pg-deleteone-test"})
	if err != nil {
		t.Fatalf("DeleteOne() error = %v", err)
	}
	if !removed {
		t.Error("DeleteOne() = false")
	}

	removed, err = st.DeleteOne(ctx, CollectionSlugRegistry, Filter{"slug": "pg-deleteone-test"})
	if err != nil {
		t.Fatalf("DeleteOne() error = %v", err)
	}
	if removed {
		t.Error("DeleteOne() after removal = true")
	}
}
