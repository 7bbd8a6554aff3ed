// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "sort"

// LocalePayload is the per-language content attached to an item. Title is
// required for every present locale; body may stay empty while a translation
// is still being written.
type LocalePayload struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body,omitempty"`
	Link     string `json:"link,omitempty"` // optional external URL, must be absolute
}

// LocaleMap maps a language code ("en", "ko", "de", ...) to its payload.
// The key set is open — no language is hard-coded into the schema — but the
// process-wide primary fallback locale must be present before publishing.
type LocaleMap map[string]LocalePayload

// Codes returns the language codes present in the map, sorted so API
// responses stay stable across requests.
func (m LocaleMap) Codes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
