// Package logs reads the per-run session logs written by --log.
//
// Latest picks the newest session file, Last returns its final lines with
// bounded memory, and Follow streams lines appended afterwards until the
// context ends.
package logs
