// Package ffprobe provides a typed wrapper around ffprobe JSON output,
// limited to what the inspect command reports: stream types and their
// language tags.
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns the parsed stream list
//   - StreamLanguages: audio and subtitle languages in stream order
package ffprobe
