package library

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Walker enumerates video files under one or more roots.
type Walker struct {
	// Extensions lists video extensions without the leading dot, in the order
	// their groups are yielded.
	Extensions []string
	Recursive  bool
	// SkipStemSuffixes excludes files whose stem ends with any of these
	// values, e.g. ".MUX" so remux outputs are not fed back into a run.
	SkipStemSuffixes []string
}

// Files returns a lazy sequence of video files. Each extension group is
// listed only when iteration reaches it. Listing errors are yielded with a
// zero MediaFile; the walk continues if the consumer keeps iterating.
func (w Walker) Files(roots []string) iter.Seq2[MediaFile, error] {
	return func(yield func(MediaFile, error) bool) {
		if len(roots) == 0 {
			roots = []string{"."}
		}
		for _, ext := range w.Extensions {
			ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
			if ext == "" {
				continue
			}
			paths, errs := w.collect(roots, "."+ext)
			for _, err := range errs {
				if !yield(MediaFile{}, err) {
					return
				}
			}
			for _, path := range paths {
				if !yield(MediaFile{Path: path}, nil) {
					return
				}
			}
		}
	}
}

// Collect drains Files into a slice, stopping at the first error.
func (w Walker) Collect(roots []string) ([]MediaFile, error) {
	var files []MediaFile
	for media, err := range w.Files(roots) {
		if err != nil {
			return files, err
		}
		files = append(files, media)
	}
	return files, nil
}

func (w Walker) collect(roots []string, suffix string) ([]string, []error) {
	seen := make(map[string]struct{})
	var paths []string
	var errs []error
	add := func(path string) {
		path = filepath.Clean(path)
		if w.skipped(path, suffix) {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("library root %q: %w", root, err))
			continue
		}
		if !info.IsDir() {
			if strings.HasSuffix(root, suffix) {
				add(root)
			}
			continue
		}
		if w.Recursive {
			err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					// Unreadable subdirectories are reported, not fatal.
					if d != nil && d.IsDir() && path != root {
						errs = append(errs, fmt.Errorf("walk %q: %w", path, walkErr))
						return filepath.SkipDir
					}
					return walkErr
				}
				if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
					add(path)
				}
				return nil
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("walk %q: %w", root, err))
			}
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("list %q: %w", root, err))
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
				add(filepath.Join(root, entry.Name()))
			}
		}
	}

	slices.Sort(paths)
	return paths, errs
}

func (w Walker) skipped(path, suffix string) bool {
	name := filepath.Base(path)
	if name == suffix {
		// ".mkv" on its own has no stem.
		return true
	}
	stem := strings.TrimSuffix(path, suffix)
	for _, skip := range w.SkipStemSuffixes {
		if skip != "" && strings.HasSuffix(stem, skip) {
			return true
		}
	}
	return false
}
