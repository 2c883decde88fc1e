// Package logging provides slog-based structured logging for TeamZones with
// console and JSON handlers and standardized field keys shared across the
// ingest pipeline, daemon, and CLI.
package logging
