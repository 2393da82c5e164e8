// Package language owns the LanguageTag value used throughout sidecar.
//
// A Tag is a 2 or 3 letter lowercase code taken from a subtitle filename or
// from an operator-supplied keep-list. Tags are only ever constructed through
// ParseTag so the rest of the code never handles free-form language strings.
// No validation against an ISO list is performed; display names are resolved
// on a best-effort basis for logs and reports.
package language
