// Package mux builds and runs mkvmerge invocations that attach discovered
// sidecar subtitles to a video or drop audio and subtitle tracks whose
// language is not on a keep-list.
//
// The argument builders are pure functions. Muxer writes to a hidden
// temporary file beside the video and renames it to <stem><suffix>.mkv only
// after mkvmerge succeeds, so a failed run never leaves a partial output
// under the final name.
package mux
