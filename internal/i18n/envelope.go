// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package i18n normalizes the per-locale payloads attached to content items
// and resolves a requested language against the process-wide fallback.
package i18n

import (
	"errors"
	"fmt"
	"net/url"

	"brandpress/internal/models"
)

// ErrNoLocales is returned by Validate when a content item carries no
// locale payloads at all. At least one language must always be present.
var ErrNoLocales = errors.New("at least one locale payload is required")

// FieldError reports which field of which locale failed validation.
type FieldError struct {
	Locale string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("locale %q: invalid %s: %s", e.Locale, e.Field, e.Reason)
}

// View is the resolved payload handed to display layers. Locale names the
// language the payload actually came from, which differs from the requested
// language when the fallback kicked in.
type View struct {
	Locale   string `json:"locale"`
	Fallback bool   `json:"fallback"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Envelope resolves and validates locale maps against a configured primary
// fallback language.
type Envelope struct {
	// Primary is the process-wide fallback locale. It must be present on an
	// item before the item can be published.
	Primary string
}

// New creates an Envelope with the given primary fallback locale.
func New(primary string) *Envelope {
	return &Envelope{Primary: primary}
}

// Resolve returns the payload for the requested locale, falling back to the
// primary locale when the requested one is absent. ok is false when neither
// exists — display layers must handle that case explicitly; Resolve never
// invents content.
func (e *Envelope) Resolve(locales models.LocaleMap, locale string) (View, bool) {
	if p, found := locales[locale]; found {
		return View{Locale: locale, Title: p.Title, Subtitle: p.Subtitle, Body: p.Body, Link: p.Link}, true
	}
	if p, found := locales[e.Primary]; found {
		return View{Locale: e.Primary, Fallback: true, Title: p.Title, Subtitle: p.Subtitle, Body: p.Body, Link: p.Link}, true
	}
	return View{}, false
}

// Validate checks every present locale payload: the title must be non-empty
// and an external link, when present, must be an absolute http(s) URL.
// A body may stay empty for translations that are not written yet.
func (e *Envelope) Validate(locales models.LocaleMap) error {
	if len(locales) == 0 {
		return ErrNoLocales
	}

	for code, payload := range locales {
		if payload.Title == "" {
			return &FieldError{Locale: code, Field: "title", Reason: "must not be empty"}
		}
		if payload.Link != "" {
			u, err := url.Parse(payload.Link)
			if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return &FieldError{Locale: code, Field: "link", Reason: "must be an absolute http(s) URL"}
			}
		}
	}
	return nil
}

// HasPrimary reports whether the primary fallback locale is present with a
// non-empty title. Publishing requires this.
func (e *Envelope) HasPrimary(locales models.LocaleMap) bool {
	p, ok := locales[e.Primary]
	return ok && p.Title != ""
}
