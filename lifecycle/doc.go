// Package lifecycle implements the connection lifecycle and resilience
// coordinator for real-time call sessions.
//
// The package reconciles independently-arriving signals - transport
// negotiation phases, system interruptions, and resource pressure - into
// one authoritative ConnectionState per session, applies per-error-kind
// recovery policies with a bounded retry budget, and keeps a bounded
// audit log of every decision.
//
// Design:
//   - Single serialized execution context: the Coordinator run loop owns
//     all mutations; blocking I/O is dispatched and re-enters the loop as
//     epoch-tagged events, so a Stop always wins a race against an
//     in-flight result.
//   - Closed error taxonomy: each ErrorKind carries retryability and user
//     guidance as immutable data.
//   - Corrective versus advisory paths stay separate: the RecoveryEngine
//     reacts to failures and may act automatically, while the
//     ResourceAdvisor only proposes downgrades for the user to accept.
//
// Callbacks registered on the Coordinator run on its serialized context
// and must not block or call Stop/Close synchronously.
package lifecycle
