// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"brandpress/internal/analytics"
	"brandpress/internal/store"
)

// Admin serves the dashboard endpoints: visit counts and the lifecycle
// audit trail. Admin role only.
type Admin struct {
	gate  *analytics.Gate
	audit *store.AuditLogStore
}

// NewAdmin creates the admin dashboard handler group.
func NewAdmin(gate *analytics.Gate, audit *store.AuditLogStore) *Admin {
	return &Admin{gate: gate, audit: audit}
}

type visitStats struct {
	Day    string `json:"day"`
	Visits int    `json:"visits"`
}

// VisitStats handles GET /admin/stats/visits?day=YYYY-MM-DD. The day
// defaults to today (UTC). Counts are approximate by design.
func (h *Admin) VisitStats(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if q := r.URL.Query().Get("day"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: "day must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	count, err := h.gate.CountForDay(r.Context(), day)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, visitStats{Day: day.Format("2006-01-02"), Visits: count})
}

// AuditTrail handles GET /admin/audit?limit=n, newest entries first.
func (h *Admin) AuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 500 {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: "limit must be 1-500"})
			return
		}
		limit = n
	}

	entries, err := h.audit.RecentEntries(limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if entries == nil {
		entries = []store.AuditEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}
