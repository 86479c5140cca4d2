// Package logging assembles structured slog loggers and formatting helpers used
// across the controller.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so hardware and storyboard code
// can tag log lines with session IDs, lifecycle states, and chapter indexes.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
