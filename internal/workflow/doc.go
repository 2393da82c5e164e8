// Package workflow drives the per-video pipelines over a library walk.
//
// SyncPipeline runs discovery, alignment, and promotion for every sidecar of
// every video; MuxPipeline runs mkvmerge in add-tracks or prune-tracks mode.
// Both process videos strictly one at a time in walker order and stop at the
// first failure unless the failure policy is "continue", in which case the
// rest of the failing video's subtitles are skipped and the walk moves on.
// A ReplaceError always stops the run because it leaves a subtitle under its
// backup name only.
//
// Outcomes are written to the ledger and metrics recorder when configured.
// Neither is required: a nil Ledger or Recorder disables that side channel.
package workflow
