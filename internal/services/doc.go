// Package services defines shared utilities consumed by the sync and mux
// pipelines and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the current video
//     path for logging.
//   - Structured error markers plus the Wrap helper, and ExitCode which turns
//     a pipeline error into the process exit status (child status, timeout,
//     interrupt).
//
// Use these helpers when wiring new pipeline steps so error classification and
// observability stay uniform.
package services
