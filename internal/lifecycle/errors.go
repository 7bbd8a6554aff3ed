// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package lifecycle

import (
	"errors"
	"fmt"

	"brandpress/internal/models"
)

var (
	// ErrNotFound indicates the content item id does not resolve in any
	// collection.
	ErrNotFound = errors.New("content item not found")

	// ErrMissingPrimaryLocale indicates a publish attempt on an item whose
	// primary fallback locale is absent or has an empty title.
	ErrMissingPrimaryLocale = errors.New("primary fallback locale payload is missing or has no title")

	// ErrInvalidSlug indicates a slug that is not a lowercase URL-path-safe
	// string after normalization.
	ErrInvalidSlug = errors.New("slug must be a lowercase URL-path-safe string")

	// ErrUnknownContentType indicates a content type outside the five
	// registered collections.
	ErrUnknownContentType = errors.New("unknown content type")
)

// InvalidTransitionError reports a state-machine violation: either a
// transition the lifecycle does not allow, or an operation (delete, update)
// attempted in a state that forbids it.
type InvalidTransitionError struct {
	Op   string
	From models.ContentState
	To   models.ContentState
}

func (e *InvalidTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("cannot %s content in state %q", e.Op, e.From)
	}
	return fmt.Sprintf("%s: invalid transition %q -> %q", e.Op, e.From, e.To)
}
