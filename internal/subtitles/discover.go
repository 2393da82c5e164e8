package subtitles

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"sidecar/internal/language"
	"sidecar/internal/library"
)

// Duplicate tag policies.
const (
	DuplicateLast  = "last"
	DuplicateError = "error"
)

// DuplicateTagError reports two sidecars claiming the same language for one
// video under the "error" duplicate policy.
type DuplicateTagError struct {
	Media  string
	Tag    language.Tag
	First  string
	Second string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("%s: language %q matched by both %s and %s", e.Media, e.Tag, e.First, e.Second)
}

// Discover finds sidecar subtitles named <stem>.<tag>.<ext> for each
// extension in exts. Extensions are scanned in the given order and matches
// within one extension are sorted, so repeated calls over an unchanged
// directory return the same selection. A missing sidecar is not an error.
func Discover(media library.MediaFile, exts []string, policy string) (Selection, error) {
	var sel Selection
	stem := media.Stem()
	base := filepath.Base(stem)
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			continue
		}
		matches, err := filepath.Glob(EscapeGlob(stem) + ".*." + EscapeGlob(ext))
		if err != nil {
			return Selection{}, fmt.Errorf("discover %s: %w", media.Path, err)
		}
		slices.Sort(matches)

		re := candidatePattern(base, ext)
		for _, match := range matches {
			sub := re.FindStringSubmatch(filepath.Base(match))
			if sub == nil {
				continue
			}
			tag, err := language.ParseTag(sub[1])
			if err != nil {
				continue
			}
			previous, replaced := sel.Set(tag, match)
			if replaced && policy == DuplicateError {
				return Selection{}, &DuplicateTagError{Media: media.Path, Tag: tag, First: previous, Second: match}
			}
		}
	}
	return sel, nil
}

func candidatePattern(base, ext string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `\.(` + language.Pattern + `)\.` + regexp.QuoteMeta(ext) + `$`)
}

// EscapeGlob escapes filepath.Match metacharacters so s matches literally.
func EscapeGlob(s string) string {
	if runtime.GOOS == "windows" {
		// Backslash is the path separator there; bracket-quote instead.
		var b strings.Builder
		for _, r := range s {
			switch r {
			case '*', '?', '[':
				b.WriteByte('[')
				b.WriteRune(r)
				b.WriteByte(']')
			default:
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
