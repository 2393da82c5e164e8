// Package deps checks that the external tools sidecar drives (aligner,
// mkvmerge, ffprobe, ffmpeg) can be resolved before a run starts.
package deps
