// Package library enumerates the video files a run operates on.
//
// Walker yields MediaFile values lazily, grouped by extension in the
// configured order and sorted by path within each group. Iterating the
// returned sequence again re-lists the file system.
package library
