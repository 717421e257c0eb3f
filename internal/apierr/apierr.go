// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package apierr defines the typed error kinds the HTTP boundary
// maps to status codes and structured JSON bodies. Components below
// the HTTP layer (pose, blobindex) return *Error for expected failure
// modes; anything else reaching the handler is treated as Internal.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is one of the error classes the system distinguishes.
type Kind string

const (
	BadRequest Kind = "bad_request"
	NotFound   Kind = "not_found"
	NoContent  Kind = "no_content"
	Internal   Kind = "internal"
)

// Error is a classified error carrying an HTTP-relevant kind, a short
// tag suitable for a JSON "error" field, and optional structured
// detail merged into the response body.
type Error struct {
	Kind   Kind
	Tag    string
	Detail map[string]any
	Err    error // underlying cause, for %w and logging; never serialized directly
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Tag, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Tag)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with the given kind and tag, optionally
// wrapping a cause.
func New(kind Kind, tag string, cause error) *Error {
	return &Error{Kind: kind, Tag: tag, Err: cause}
}

// WithDetail attaches structured fields (merged into the JSON error
// body) and returns the same *Error for chaining.
func (e *Error) WithDetail(detail map[string]any) *Error {
	e.Detail = detail
	return e
}

// As extracts an *Error from err via errors.As, the same idiom used
// to classify errors at an API boundary.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf reports the Kind of err, defaulting to Internal when err is
// not an *Error (an unexpected failure that reached the boundary).
func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.Kind
	}
	return Internal
}
