// Package audit implements the outbound, append-only decision log.
//
// Decisions are mirrored to the store asynchronously and fire-and-forget:
// an audit failure is logged but never blocks or changes a decision already
// returned to the caller. SQLite is the durable backend; MemoryStore serves
// tests. Old records are pruned on a cron schedule.
package audit
