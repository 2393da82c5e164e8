package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpegForAligner reports the ffmpeg binary the aligner will execute.
//
// ffsubsync-style aligners installed into a virtualenv pick up an ffmpeg that
// sits next to their entry point before falling back to PATH. The lookup here
// follows the same order so doctor output matches what a sync run will use.
func CheckFFmpegForAligner(alignerCommand string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by the aligner to extract reference audio",
	}

	aligner := strings.TrimSpace(alignerCommand)
	if aligner != "" {
		if resolved, err := lookPath(aligner); err == nil {
			candidate := siblingBinary(resolved, "ffmpeg")
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				result.Command = candidate
				result.Resolved = candidate
				result.Available = true
				return result
			}
		}
	}

	const ffmpegName = "ffmpeg"
	if ffmpegPath, err := lookPath(ffmpegName); err == nil {
		result.Command = ffmpegName
		result.Resolved = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = ffmpegName
	result.Detail = fmt.Sprintf("binary %q not found", ffmpegName)
	return result
}

func siblingBinary(resolved, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(resolved), name)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
