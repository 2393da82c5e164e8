package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"sidecar/internal/language"
)

// Result represents the parsed output from an ffprobe stream inspection.
type Result struct {
	Streams []Stream `json:"streams"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Tags      map[string]string `json:"tags"`
}

// Language returns the stream's language tag, or "" when untagged.
func (s Stream) Language() string {
	return language.ExtractFromTags(s.Tags)
}

// Title returns the stream title tag if present.
func (s Stream) Title() string {
	if s.Tags == nil {
		return ""
	}
	for _, key := range []string{"title", "TITLE", "Title"} {
		if v := strings.TrimSpace(s.Tags[key]); v != "" {
			return v
		}
	}
	return ""
}

// Inspect executes ffprobe against path and decodes the stream list with
// language tags.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, //nolint:gosec
		"-v", "error",
		"-hide_banner",
		"-show_entries", "stream=index,codec_name,codec_type:stream_tags=language,title",
		"-of", "json",
		"--", path,
	)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// StreamsOfType returns the streams whose codec_type matches kind
// ("audio", "subtitle", "video").
func (r Result) StreamsOfType(kind string) []Stream {
	var out []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			out = append(out, stream)
		}
	}
	return out
}

// Languages lists audio and subtitle languages in stream order. Untagged
// streams are reported as "und".
type Languages struct {
	Audio     []string
	Subtitles []string
}

// Languages groups stream languages by type.
func (r Result) Languages() Languages {
	var langs Languages
	for _, stream := range r.Streams {
		lang := stream.Language()
		if lang == "" {
			lang = "und"
		}
		switch strings.ToLower(stream.CodecType) {
		case "audio":
			langs.Audio = append(langs.Audio, lang)
		case "subtitle":
			langs.Subtitles = append(langs.Subtitles, lang)
		}
	}
	return langs
}

// StreamLanguages runs ffprobe and returns the grouped languages.
func StreamLanguages(ctx context.Context, binary, path string) (Languages, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return Languages{}, err
	}
	return result.Languages(), nil
}
