// Package subtitles associates sidecar subtitle files with videos, drives
// the external aligner, and promotes aligned results into place.
//
// Discovery follows the <video-stem>.<tag>.<ext> naming convention and never
// opens subtitle contents. Synchronizer treats the aligner as an opaque child
// process: success requires a zero exit status and an output file on disk.
// Promote performs the two-rename backup/replace protocol, always renaming
// the original to its backup before the synced file takes its name.
package subtitles
