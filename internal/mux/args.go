package mux

import (
	"sidecar/internal/language"
	"sidecar/internal/subtitles"
)

// BuildAddTracksArgs returns mkvmerge arguments that copy video and append
// one subtitle track per selection entry, in the selection's order:
//
//	-o <output> <video> --language 0:<tag> <subtitle> ...
func BuildAddTracksArgs(video, output string, selection subtitles.Selection) []string {
	args := make([]string, 0, 3+3*selection.Len())
	args = append(args, "-o", output, video)
	for tag, path := range selection.All() {
		args = append(args, "--language", "0:"+tag.String(), path)
	}
	return args
}

// BuildPruneTracksArgs returns mkvmerge arguments that keep only audio and
// subtitle tracks whose language is in keep:
//
//	-o <output> --audio-tracks <keep> --subtitle-tracks <keep> <video>
//
// Callers must reject an empty keep-list before invoking mkvmerge.
func BuildPruneTracksArgs(video, output string, keep []language.Tag) []string {
	joined := language.Join(keep)
	return []string{
		"-o", output,
		"--audio-tracks", joined,
		"--subtitle-tracks", joined,
		video,
	}
}
