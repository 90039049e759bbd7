// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves free-text location queries to coordinates
// through the Google Maps Geocoding API.
package geocode

import (
	"context"
	"fmt"

	"github.com/innatives/geocoding-app-v2/spatial"
)

// OutcomeKind tags the result of one geocoding attempt.
type OutcomeKind int

const (
	// OutcomeResolved the service returned a usable coordinate.
	OutcomeResolved OutcomeKind = iota
	// OutcomeUnresolved the service answered but found no match.
	OutcomeUnresolved
	// OutcomeFailed the call errored (transport, bad response, non-OK status).
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResolved:
		return "resolved"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the classified result of geocoding one query. It is computed
// once per row, never retried, and never mutated after creation.
type Outcome struct {
	Kind  OutcomeKind
	Point spatial.Point // set only when Kind is OutcomeResolved
	Err   string        // set only when Kind is OutcomeFailed
}

// Resolved builds a successful outcome.
func Resolved(p spatial.Point) Outcome {
	return Outcome{Kind: OutcomeResolved, Point: p}
}

// Unresolved builds a no-match outcome.
func Unresolved() Outcome {
	return Outcome{Kind: OutcomeUnresolved}
}

// Failedf builds a failure outcome with a human-readable message.
func Failedf(format string, args ...any) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: fmt.Sprintf(format, args...)}
}

// Resolver resolves a location query with the given credential. One call,
// no retries, no caching.
type Resolver interface {
	Resolve(ctx context.Context, query, credential string) Outcome
}
