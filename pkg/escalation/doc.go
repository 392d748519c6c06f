// Package escalation implements the hand-off from the automated tiers to
// slower expert review.
//
// The Coordinator guarantees at most one open ticket per fingerprint:
// concurrent escalations for the same command attach to the existing ticket
// rather than interrupting another expert, and every attached waiter is
// released together when the ticket resolves or times out. Late answers
// arriving after timeout are logged and discarded; a returned decision is
// never retroactively changed.
package escalation
