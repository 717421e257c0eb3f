// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time so the ingest and keepalive paths can
// be tested deterministically. Production code injects Real(); tests
// inject Fake() and advance it explicitly instead of sleeping.
package clock

import "time"

// Clock is the subset of time operations the marshal needs. Every
// function that would otherwise call time.Now or time.NewTicker
// directly takes a Clock instead.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a ticker delivering on the returned channel
	// at the given interval. Call Stop when done to release
	// resources. Panics if d <= 0.
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of *time.Ticker the marshal depends on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }
