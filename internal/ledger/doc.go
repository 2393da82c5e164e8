// Package ledger persists a history of runs and per-subtitle outcomes in a
// SQLite database under the state directory.
//
// The sync pipeline consults it to skip subtitles that were already promoted
// and have not changed since, and the history command renders it. The store
// follows the usual WAL + busy-retry setup; a schema version mismatch is
// reported rather than migrated.
package ledger
