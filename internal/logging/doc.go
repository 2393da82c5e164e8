// Package logging assembles structured slog loggers and formatting helpers used
// across sidecar.
//
// It owns the console/JSON handlers, centralizes level, colour, and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages, and the video being processed. There is no
// package-level logger: callers build one with New and pass it down
// explicitly. NewNop provides a silent logger for tests.
package logging
