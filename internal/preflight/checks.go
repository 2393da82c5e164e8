package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"sidecar/internal/config"
	"sidecar/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLibraryRoot verifies a library root. Directories need write access
// because promotion renames files inside them; a single video file only needs
// its parent directory to be writable.
func CheckLibraryRoot(path string) Result {
	const name = "Library root"
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return CheckDirectoryAccess(name, path)
	}
	parent := CheckDirectoryAccess(name, parentDir(path))
	if parent.Passed {
		parent.Detail = fmt.Sprintf("%s (file; parent writable)", path)
	}
	return parent
}

// Requirements lists the external tools a command needs.
func Requirements(cfg *config.Config, command string) []deps.Requirement {
	switch command {
	case CommandSync:
		return []deps.Requirement{{
			Name:        "Aligner",
			Command:     cfg.Sync.Binary,
			Description: "Required to synchronize subtitles",
		}}
	case CommandMux:
		return []deps.Requirement{{
			Name:        "mkvmerge",
			Command:     cfg.Mux.Binary,
			Description: "Required to remux tracks",
		}}
	case CommandInspect:
		return []deps.Requirement{{
			Name:        "FFprobe",
			Command:     cfg.Inspect.FFprobeBinary,
			Description: "Required for stream language inspection",
		}}
	}
	var all []deps.Requirement
	for _, c := range []string{CommandSync, CommandMux, CommandInspect} {
		all = append(all, Requirements(cfg, c)...)
	}
	return all
}

// CheckSystemDeps evaluates the tools needed by command ("" checks all of
// them). Sync also reports the ffmpeg the aligner will pick up.
func CheckSystemDeps(cfg *config.Config, command string) []deps.Status {
	statuses := deps.CheckBinaries(Requirements(cfg, command))
	if command == CommandSync || command == "" {
		ffmpeg := deps.CheckFFmpegForAligner(cfg.Sync.Binary)
		ffmpeg.Optional = true
		statuses = append(statuses, ffmpeg)
	}
	return statuses
}
