package language

import (
	"fmt"
	"regexp"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Pattern is the accepted shape of a language tag.
const Pattern = `[a-z]{2,3}`

var tagPattern = regexp.MustCompile(`^` + Pattern + `$`)

// Tag is a validated 2-3 letter lowercase language code.
type Tag string

// ParseTag validates value and returns it as a Tag. Uppercase letters, digits,
// and lengths other than 2 or 3 are rejected.
func ParseTag(value string) (Tag, error) {
	if !tagPattern.MatchString(value) {
		return "", fmt.Errorf("invalid language tag %q: must match %s", value, Pattern)
	}
	return Tag(value), nil
}

// MustTag is ParseTag for constants and tests.
func MustTag(value string) Tag {
	tag, err := ParseTag(value)
	if err != nil {
		panic(err)
	}
	return tag
}

func (t Tag) String() string { return string(t) }

// DisplayName returns an English name for the tag, or the uppercased tag when
// the code is not known.
func (t Tag) DisplayName() string {
	return DisplayName(string(t))
}

// DisplayName resolves any language code (including ffprobe stream tags) to an
// English display name. Empty input yields "Unknown".
func DisplayName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "Unknown"
	}
	parsed, err := xlanguage.Parse(code)
	if err == nil {
		if name := display.English.Languages().Name(parsed); name != "" {
			return name
		}
	}
	return strings.ToUpper(code)
}

// ParseList splits a comma separated keep-list ("eng,fre") into tags,
// preserving order and dropping duplicates. Surrounding whitespace is ignored.
func ParseList(values ...string) ([]Tag, error) {
	var tags []Tag
	seen := make(map[Tag]struct{})
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			tag, err := ParseTag(part)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// Join renders tags as the comma separated list mkvmerge expects.
func Join(tags []Tag) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = string(tag)
	}
	return strings.Join(parts, ",")
}

// ExtractFromTags extracts and normalizes the language from stream metadata tags.
// Checks common tag keys: language, LANGUAGE, Language, language_ietf, lang, LANG.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}
