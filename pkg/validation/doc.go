// Package validation defines the core request and decision types shared by
// every tier of the speed-layer dispatcher, along with fingerprint
// computation. Fingerprints are the cache and deduplication key for the
// whole system: two requests with the same fingerprint are treated as the
// same command.
package validation
