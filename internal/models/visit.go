// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// VisitorVisit is one recorded page view that passed the dedup gate.
// At most one exists per (session, UTC calendar day); it is never mutated
// or deleted once written.
type VisitorVisit struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	Day       string    `json:"day"` // YYYY-MM-DD, derived from Timestamp in UTC
	Page      string    `json:"page"`
	Referrer  string    `json:"referrer,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
