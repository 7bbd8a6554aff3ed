// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// audit.go records content lifecycle transitions in the database for audit
// and debugging purposes. Each entry captures which item changed, what
// happened (create/update/publish/unpublish/archive/delete), and who did it.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AuditLogStore handles lifecycle audit log operations.
type AuditLogStore struct {
	db *sql.DB
}

// NewAuditLogStore creates a new AuditLogStore.
func NewAuditLogStore(db *sql.DB) *AuditLogStore {
	return &AuditLogStore{db: db}
}

// Log records a lifecycle transition. Best-effort: failures are logged but
// never propagated, since the transition itself has already been committed.
func (s *AuditLogStore) Log(contentType string, itemID, actorID uuid.UUID, action string) {
	_, err := s.db.Exec(`
		INSERT INTO audit_log (content_type, item_id, actor_id, action)
		VALUES ($1, $2, $3, $4)
	`, contentType, itemID, actorID, action)
	if err != nil {
		slog.Warn("failed to write audit log entry",
			"content_type", contentType,
			"item_id", itemID,
			"actor_id", actorID,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("audit log entry written",
		"content_type", contentType,
		"item_id", itemID,
		"action", action,
	)
}

// RecentEntries returns the most recent lifecycle transitions, newest first.
func (s *AuditLogStore) RecentEntries(limit int) ([]AuditEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, content_type, item_id, actor_id, action, occurred_at
		FROM audit_log
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ContentType, &e.ItemID, &e.ActorID, &e.Action, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AuditEntry represents a single recorded lifecycle transition.
type AuditEntry struct {
	ID          int64     `json:"id"`
	ContentType string    `json:"content_type"`
	ItemID      uuid.UUID `json:"item_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	Action      string    `json:"action"`
	OccurredAt  time.Time `json:"occurred_at"`
}
