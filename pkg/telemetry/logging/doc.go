// Package logging builds the process-wide structured logger from
// configuration. All components log through log/slog with a "component"
// attribute; this package only wires level, format, and destination.
package logging
