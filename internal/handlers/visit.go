// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"time"

	"brandpress/internal/analytics"
)

// Visits handles the public page-view ingestion endpoint.
type Visits struct {
	gate *analytics.Gate
}

// NewVisits creates the visits handler.
func NewVisits(gate *analytics.Gate) *Visits {
	return &Visits{gate: gate}
}

type visitRequest struct {
	SessionID string    `json:"session_id"`
	Page      string    `json:"page"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}

type visitResponse struct {
	Inserted bool `json:"inserted"`
}

// Record handles POST /visits. The dedup gate decides whether this event
// is the session's first visit of the calendar day; duplicates are
// acknowledged without writing.
func (h *Visits) Record(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: err.Error()})
		return
	}
	if req.SessionID == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: "session_id is required"})
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}
	if req.IPAddress == "" {
		req.IPAddress = r.RemoteAddr
	}

	inserted, err := h.gate.RecordVisit(r.Context(), analytics.Event{
		SessionID: req.SessionID,
		Page:      req.Page,
		Referrer:  req.Referrer,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, visitResponse{Inserted: inserted})
}
