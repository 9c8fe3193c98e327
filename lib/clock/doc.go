// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the
// readiness poll, shutdown grace periods, and timed logging.
//
// Production code holds a [Clock] and calls it instead of the time
// package. [Real] delegates to the standard library. [Fake] returns a
// clock that only moves when the test calls Advance, so a 60 second
// startup timeout can be exercised without waiting 60 seconds:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go runtime.Start(ctx)
//	fake.WaitForTimers(2)           // poll ticker + deadline registered
//	fake.Advance(61 * time.Second)  // deadline fires
//
// WaitForTimers closes the race between a goroutine registering its
// timer and the test advancing time past it.
package clock
