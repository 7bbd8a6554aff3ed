package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"brandpress/internal/store"
	"brandpress/internal/store/memory"
)

// stubSeen is a scripted fast-path marker.
type stubSeen struct {
	first     bool
	err       error
	calls     int
	forgotten []string
}

func (s *stubSeen) FirstSeen(ctx context.Context, key string) (bool, error) {
	s.calls++
	return s.first, s.err
}

func (s *stubSeen) Forget(ctx context.Context, key string) error {
	s.forgotten = append(s.forgotten, key)
	return nil
}

// failingStore wraps the memory store and fails reads to exercise the
// fail-open path.
type failingStore struct {
	*memory.Store
}

func (f *failingStore) FindOne(ctx context.Context, collection string, filter store.Filter) (*store.Document, error) {
	return nil, errors.New("connection refused")
}

// brokenInsertStore wraps the memory store and fails writes.
type brokenInsertStore struct {
	*memory.Store
}

func (b *brokenInsertStore) Insert(ctx context.Context, collection string, id uuid.UUID, data []byte) (*store.Document, error) {
	return nil, errors.New("connection refused")
}

func event(session string, at time.Time) Event {
	return Event{
		SessionID: session,
		Page:      "/products/spring",
		Referrer:  "https://news.example.com",
		UserAgent: "test-agent",
		IPAddress: "203.0.113.7",
		Timestamp: at,
	}
}

func TestRecordVisitDedup(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	gate := New(st, nil)

	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	inserted, err := gate.RecordVisit(ctx, event("sess-a", noon))
	if err != nil {
		t.Fatalf("RecordVisit() error = %v", err)
	}
	if !inserted {
		t.Error("first visit not inserted")
	}

	// Same session, same UTC day: suppressed even on a different page.
	later := event("sess-a", noon.Add(6*time.Hour))
	later.Page = "/blog/launch-2025"
	inserted, err = gate.RecordVisit(ctx, later)
	if err != nil {
		t.Fatalf("RecordVisit() error = %v", err)
	}
	if inserted {
		t.Error("repeat visit inserted, want suppressed")
	}

	// Different session, same day: counts.
	inserted, err = gate.RecordVisit(ctx, event("sess-b", noon))
	if err != nil {
		t.Fatalf("RecordVisit() error = %v", err)
	}
	if !inserted {
		t.Error("different session suppressed")
	}

	// Same session, next UTC day: counts again.
	inserted, err = gate.RecordVisit(ctx, event("sess-a", noon.Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("RecordVisit() error = %v", err)
	}
	if !inserted {
		t.Error("next-day visit suppressed")
	}

	count, err := gate.CountForDay(ctx, noon)
	if err != nil {
		t.Fatalf("CountForDay() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountForDay() = %d, want 2", count)
	}
}

// TestRecordVisitDayBoundary pins the UTC calendar-day window: 23:59 and
// 00:01 the next day are distinct visits for the same session.
func TestRecordVisitDayBoundary(t *testing.T) {
	ctx := context.Background()
	gate := New(memory.New(), nil)

	lateNight := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	justAfter := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)

	for _, at := range []time.Time{lateNight, justAfter} {
		inserted, err := gate.RecordVisit(ctx, event("sess-night", at))
		if err != nil {
			t.Fatalf("RecordVisit(%v) error = %v", at, err)
		}
		if !inserted {
			t.Errorf("RecordVisit(%v) suppressed, want inserted", at)
		}
	}
}

func TestRecordVisitRequiresSession(t *testing.T) {
	gate := New(memory.New(), nil)
	if _, err := gate.RecordVisit(context.Background(), event("", time.Now())); err == nil {
		t.Error("RecordVisit() with empty session id succeeded")
	}
}

func TestRecordVisitFastPath(t *testing.T) {
	ctx := context.Background()
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("marker hit skips store", func(t *testing.T) {
		seen := &stubSeen{first: false}
		gate := New(memory.New(), seen)

		inserted, err := gate.RecordVisit(ctx, event("sess-a", noon))
		if err != nil {
			t.Fatalf("RecordVisit() error = %v", err)
		}
		if inserted {
			t.Error("visit inserted despite marker hit")
		}
		if seen.calls != 1 {
			t.Errorf("marker calls = %d, want 1", seen.calls)
		}
	})

	t.Run("marker error falls through to store", func(t *testing.T) {
		seen := &stubSeen{err: errors.New("valkey down")}
		st := memory.New()
		gate := New(st, seen)

		inserted, err := gate.RecordVisit(ctx, event("sess-a", noon))
		if err != nil {
			t.Fatalf("RecordVisit() error = %v", err)
		}
		if !inserted {
			t.Error("visit suppressed, want store-backed insert")
		}
	})
}

// TestRecordVisitClearsMarkerOnFailedInsert verifies that a marker set for a
// visit whose insert then fails is forgotten again, so a retried event is not
// swallowed by the dedup window.
func TestRecordVisitClearsMarkerOnFailedInsert(t *testing.T) {
	ctx := context.Background()
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("marker set then insert fails", func(t *testing.T) {
		seen := &stubSeen{first: true}
		gate := New(&brokenInsertStore{Store: memory.New()}, seen)

		if _, err := gate.RecordVisit(ctx, event("sess-a", noon)); err == nil {
			t.Fatal("RecordVisit() succeeded, want insert error")
		}
		want := "visit:sess-a:2025-06-01"
		if len(seen.forgotten) != 1 || seen.forgotten[0] != want {
			t.Errorf("forgotten = %v, want [%s]", seen.forgotten, want)
		}
	})

	t.Run("marker never set stays untouched", func(t *testing.T) {
		seen := &stubSeen{err: errors.New("valkey down")}
		gate := New(&brokenInsertStore{Store: memory.New()}, seen)

		if _, err := gate.RecordVisit(ctx, event("sess-a", noon)); err == nil {
			t.Fatal("RecordVisit() succeeded, want insert error")
		}
		if len(seen.forgotten) != 0 {
			t.Errorf("forgotten = %v, want none", seen.forgotten)
		}
	})
}

// TestRecordVisitFailsOpen verifies that an ambiguous existence check still
// records the visit rather than dropping it.
func TestRecordVisitFailsOpen(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: memory.New()}
	gate := New(st, nil)

	inserted, err := gate.RecordVisit(ctx, event("sess-a", time.Now()))
	if err != nil {
		t.Fatalf("RecordVisit() error = %v", err)
	}
	if !inserted {
		t.Error("visit dropped on failed existence check, want fail-open insert")
	}
}
