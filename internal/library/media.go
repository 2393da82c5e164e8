package library

import (
	"path/filepath"
	"strings"
)

// MediaFile is a video file discovered by the walker.
type MediaFile struct {
	Path string
}

// Stem returns the path without its final extension.
func (m MediaFile) Stem() string {
	return strings.TrimSuffix(m.Path, filepath.Ext(m.Path))
}

// Dir returns the directory holding the video.
func (m MediaFile) Dir() string {
	return filepath.Dir(m.Path)
}

// Base returns the file name without its directory.
func (m MediaFile) Base() string {
	return filepath.Base(m.Path)
}

func (m MediaFile) String() string {
	return m.Path
}
