// Package logging assembles structured slog loggers and formatting helpers used
// across captioner components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages, and correlation IDs. A bounded StreamHub keeps
// the most recent events in memory; the dev server serves them at /logs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
