// Package retry provides backoff scheduling for transient failures.
//
// # Overview
//
// Two entry points:
//
//   - Policy: computes the delay before each reconnection attempt. This is
//     what the connection state machine consults between attempts, because
//     it needs to observe every failure and update its own status.
//   - Do / DoWithResult: a closed retry loop for one-shot operations that
//     don't need per-attempt visibility (e.g. establishing an event-bus
//     connection).
//
// # Delay Policies
//
// A linear policy waits the same BaseDelay before every attempt. An
// exponential policy doubles per attempt, capped at MaxDelay:
//
//	p := retry.Policy{BaseDelay: 100 * time.Millisecond, Exponential: true, MaxDelay: 30 * time.Second}
//	delay := p.DelayFor(attempt)
//
// # The Do Loop
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return bus.Connect()
//	})
//
// Errors wrapped with NonRetryable fail immediately. All waiting respects
// context cancellation.
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers
//   - No metrics collection (instrument at the call site)
//   - No error classification (caller decides what to retry)
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a
// thread-safe random source to avoid contention.
package retry
