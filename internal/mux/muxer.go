package mux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sidecar/internal/language"
	"sidecar/internal/library"
	"sidecar/internal/logging"
	"sidecar/internal/procexec"
	"sidecar/internal/services"
	"sidecar/internal/subtitles"
)

// DefaultOutputSuffix marks remuxed files: show.mkv becomes show.MUX.mkv.
const DefaultOutputSuffix = ".MUX"

// Operation names used in results and errors.
const (
	OpAddTracks   = "add"
	OpPruneTracks = "prune"
)

// renameFunc is swapped in tests.
var renameFunc = os.Rename

// MuxError reports a failed mkvmerge run. No output file is left behind.
type MuxError struct {
	Op     string
	Media  string
	Output string
	Err    error
}

func (e *MuxError) Error() string {
	return fmt.Sprintf("mux %s %s -> %s: %v", e.Op, e.Media, e.Output, e.Err)
}

func (e *MuxError) Unwrap() error { return e.Err }

// Result describes a completed remux.
type Result struct {
	Op        string
	Media     string
	Output    string
	Languages []language.Tag
	Duration  time.Duration
	DryRun    bool
}

// Muxer runs mkvmerge.
type Muxer struct {
	Binary       string
	OutputSuffix string
	Runner       procexec.Runner
	DryRun       bool
	logger       *slog.Logger
}

// NewMuxer constructs a Muxer invoking binary through runner.
func NewMuxer(binary string, runner procexec.Runner, logger *slog.Logger) *Muxer {
	return &Muxer{
		Binary:       binary,
		OutputSuffix: DefaultOutputSuffix,
		Runner:       runner,
		logger:       logging.NewComponentLogger(logger, "muxer"),
	}
}

// OutputPath returns <stem><suffix>.mkv for media.
func (m *Muxer) OutputPath(media library.MediaFile) string {
	suffix := DefaultOutputSuffix
	if m != nil && m.OutputSuffix != "" {
		suffix = m.OutputSuffix
	}
	return media.Stem() + suffix + ".mkv"
}

// AddTracks attaches every subtitle in selection to media.
func (m *Muxer) AddTracks(ctx context.Context, media library.MediaFile, selection subtitles.Selection) (Result, error) {
	if selection.Len() == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "mux", OpAddTracks, "no subtitles to add for "+media.Path, nil)
	}
	for _, c := range selection.Candidates() {
		if _, err := os.Stat(c.Path); err != nil {
			return Result{}, services.Wrap(services.ErrNotFound, "mux", OpAddTracks, "subtitle "+c.Path, err)
		}
	}
	return m.run(ctx, OpAddTracks, media, selection.Tags(), func(output string) []string {
		return BuildAddTracksArgs(media.Path, output, selection)
	})
}

// PruneTracks keeps only audio and subtitle tracks whose language is in keep.
// An empty keep-list is rejected before mkvmerge runs.
func (m *Muxer) PruneTracks(ctx context.Context, media library.MediaFile, keep []language.Tag) (Result, error) {
	if len(keep) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "mux", OpPruneTracks, "keep-list is empty", nil)
	}
	return m.run(ctx, OpPruneTracks, media, keep, func(output string) []string {
		return BuildPruneTracksArgs(media.Path, output, keep)
	})
}

func (m *Muxer) run(ctx context.Context, op string, media library.MediaFile, langs []language.Tag, build func(string) []string) (Result, error) {
	if m == nil || m.Runner == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "mux", op, "muxer not configured", nil)
	}
	if strings.TrimSpace(m.Binary) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "mux", op, "mkvmerge binary not set", nil)
	}
	if _, err := os.Stat(media.Path); err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "mux", op, "source video", err)
	}
	logger := logging.WithContext(ctx, m.logger)
	output := m.OutputPath(media)
	result := Result{Op: op, Media: media.Path, Output: output, Languages: langs, DryRun: m.DryRun}

	if m.DryRun {
		err := m.Runner.Run(ctx, m.Binary, build(output)...)
		if err != nil {
			return result, &MuxError{Op: op, Media: media.Path, Output: output, Err: err}
		}
		return result, nil
	}

	tmpPath := filepath.Join(filepath.Dir(output), ".mux-"+filepath.Base(output))
	_ = os.Remove(tmpPath)

	logger.Debug("executing mkvmerge",
		logging.String("op", op),
		logging.Output(output),
		logging.String("languages", language.Join(langs)),
	)

	start := time.Now()
	if err := m.Runner.Run(ctx, m.Binary, build(tmpPath)...); err != nil {
		_ = os.Remove(tmpPath)
		return result, &MuxError{Op: op, Media: media.Path, Output: output, Err: err}
	}
	result.Duration = time.Since(start)

	if _, err := os.Stat(tmpPath); err != nil {
		err = services.Wrap(services.ErrExternalTool, "mux", m.Binary, "did not produce output", err)
		return result, &MuxError{Op: op, Media: media.Path, Output: output, Err: err}
	}
	if err := renameFunc(tmpPath, output); err != nil {
		_ = os.Remove(tmpPath)
		return result, &MuxError{Op: op, Media: media.Path, Output: output, Err: fmt.Errorf("rename output: %w", err)}
	}

	logger.Info("remux complete",
		logging.String(logging.FieldEventType, "mux_complete"),
		logging.String("op", op),
		logging.Output(output),
		logging.String("languages", language.Join(langs)),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

// IsMuxError reports whether err came from a failed mkvmerge run.
func IsMuxError(err error) bool {
	var muxErr *MuxError
	return errors.As(err, &muxErr)
}
