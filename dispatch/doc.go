// Package dispatch routes inbound envelopes to subscribers.
//
// The package has two layers. Dispatcher is an in-memory pub/sub keyed
// by envelope type: handlers register against an exact type or the "*"
// wildcard, and every dispatch invokes matching handlers synchronously
// in registration order. A handler panic is recovered and reported
// through the error callback without stopping delivery to the handlers
// behind it.
//
// Pipeline sits in front of the dispatcher on the inbound path. It
// inflates and parses raw frames, reports malformed frames on the
// error channel instead of tearing the connection down, runs the
// registered filters (any false drops the envelope) and then the
// transformers, and finally hands the surviving envelope to the
// dispatcher. Binary frames skip JSON parsing entirely and come out on
// the binary channel.
package dispatch
