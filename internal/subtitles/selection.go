package subtitles

import (
	"iter"

	"sidecar/internal/language"
)

// Candidate is a sidecar subtitle matched to a video.
type Candidate struct {
	Tag  language.Tag
	Path string
}

// Selection maps language tags to subtitle paths in insertion order. The
// order is significant: it becomes the track order of a remuxed container.
type Selection struct {
	entries []Candidate
	index   map[language.Tag]int
}

// NewSelection builds a selection from candidates, later duplicates replacing
// earlier values in place.
func NewSelection(candidates ...Candidate) Selection {
	var s Selection
	for _, c := range candidates {
		s.Set(c.Tag, c.Path)
	}
	return s
}

// Set records path for tag. Re-setting an existing tag keeps its position
// and reports the path it replaced.
func (s *Selection) Set(tag language.Tag, path string) (previous string, replaced bool) {
	if s.index == nil {
		s.index = make(map[language.Tag]int)
	}
	if i, ok := s.index[tag]; ok {
		previous = s.entries[i].Path
		s.entries[i].Path = path
		return previous, true
	}
	s.index[tag] = len(s.entries)
	s.entries = append(s.entries, Candidate{Tag: tag, Path: path})
	return "", false
}

// Get returns the path recorded for tag.
func (s Selection) Get(tag language.Tag) (string, bool) {
	i, ok := s.index[tag]
	if !ok {
		return "", false
	}
	return s.entries[i].Path, true
}

func (s Selection) Len() int { return len(s.entries) }

// Tags returns the tags in insertion order.
func (s Selection) Tags() []language.Tag {
	tags := make([]language.Tag, 0, len(s.entries))
	for _, c := range s.entries {
		tags = append(tags, c.Tag)
	}
	return tags
}

// Candidates returns a copy of the entries in insertion order.
func (s Selection) Candidates() []Candidate {
	return append([]Candidate(nil), s.entries...)
}

// All iterates tag/path pairs in insertion order.
func (s Selection) All() iter.Seq2[language.Tag, string] {
	return func(yield func(language.Tag, string) bool) {
		for _, c := range s.entries {
			if !yield(c.Tag, c.Path) {
				return
			}
		}
	}
}
