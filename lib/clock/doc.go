// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock instead of calling time.Now,
// time.Sleep, or time.After directly. In production, Real() provides
// the standard library behavior. In tests, Fake() provides a clock
// whose Sleep returns immediately after advancing fake time, so sleep
// steps and bounded poll loops run in microseconds and their waits can
// be asserted exactly.
//
// Wire it as a struct field:
//
//	type Manager struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// and in tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	m := NewManager(..., c)
//	// ... exercise m ...
//	if got := c.Slept(); got != 5*time.Second { ... }
package clock
