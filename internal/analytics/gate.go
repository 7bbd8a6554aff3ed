// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package analytics decides whether an inbound page-view event is the
// session's first visit of the calendar day and therefore worth recording.
//
// The gate is best-effort by design: two concurrent requests for a brand-new
// session/day can both pass the existence check and produce one harmless
// duplicate row. Visit counts are approximate; nothing here may be used for
// exact counting or billing.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"brandpress/internal/models"
	"brandpress/internal/store"
)

// dayFormat is the UTC calendar-day key: the visit's timestamp truncated to
// its containing [dayStart, dayStart+24h) window.
const dayFormat = "2006-01-02"

// firstSeen is the optional Valkey fast path. A nil marker or any marker
// error simply falls through to the authoritative store check. Forget undoes
// a marker when the visit it announced never made it into the store.
type firstSeen interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Event is one inbound page-view. The timestamp is supplied by the caller
// and trusted as-is; the gate does no server-side clock reconciliation.
type Event struct {
	SessionID string    `json:"session_id"`
	Page      string    `json:"page"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}

// Gate deduplicates visits per (session, UTC calendar day).
type Gate struct {
	store store.Store
	seen  firstSeen // may be nil
}

// New creates a Gate. seen may be nil to disable the Valkey fast path.
func New(st store.Store, seen firstSeen) *Gate {
	return &Gate{store: st, seen: seen}
}

// RecordVisit decides whether the event is a new countable visit and, if
// so, stores it. Returns true when a VisitorVisit was inserted.
//
// An ambiguous existence check (store error) fails open — the visit is
// inserted anyway, since an occasional duplicate row is an accepted cost
// while a silently dropped visit is not recoverable.
func (g *Gate) RecordVisit(ctx context.Context, ev Event) (bool, error) {
	if ev.SessionID == "" {
		return false, fmt.Errorf("session id is required")
	}

	day := ev.Timestamp.UTC().Format(dayFormat)
	marker := "visit:" + ev.SessionID + ":" + day
	markerSet := false

	if g.seen != nil {
		first, err := g.seen.FirstSeen(ctx, marker)
		if err != nil {
			slog.Debug("visit dedup fast path unavailable", "error", err)
		} else if first {
			markerSet = true
		} else {
			// The marker was already set inside the TTL window, so this
			// session/day has been recorded. No store round trip needed.
			return false, nil
		}
	}

	filter := store.Filter{"session_id": ev.SessionID, "day": day}
	existing, err := g.store.FindOne(ctx, store.CollectionVisits, filter)
	if err != nil {
		slog.Warn("visit existence check failed, failing open",
			"session_id", ev.SessionID, "day", day, "error", err)
	} else if existing != nil {
		return false, nil
	}

	visit := models.VisitorVisit{
		ID:        uuid.New(),
		SessionID: ev.SessionID,
		Day:       day,
		Page:      ev.Page,
		Referrer:  ev.Referrer,
		UserAgent: ev.UserAgent,
		IPAddress: ev.IPAddress,
		Timestamp: ev.Timestamp.UTC(),
	}

	data, err := json.Marshal(visit)
	if err != nil {
		return false, fmt.Errorf("encode visit: %w", err)
	}
	if _, err := g.store.Insert(ctx, store.CollectionVisits, visit.ID, data); err != nil {
		// The marker we just set claims this session/day is recorded, but
		// the row never landed. Clear it so a retried event passes the gate.
		if markerSet {
			if ferr := g.seen.Forget(ctx, marker); ferr != nil {
				slog.Warn("visit dedup marker not cleared after failed insert",
					"session_id", ev.SessionID, "day", day, "error", ferr)
			}
		}
		return false, fmt.Errorf("record visit: %w", err)
	}
	return true, nil
}

// CountForDay returns how many visits were recorded for a UTC calendar day.
// Used by the admin dashboard; approximate by design.
func (g *Gate) CountForDay(ctx context.Context, day time.Time) (int, error) {
	docs, err := g.store.Find(ctx, store.CollectionVisits, store.Filter{
		"day": day.UTC().Format(dayFormat),
	})
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return len(docs), nil
}
