package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sidecar/internal/library"
	"sidecar/internal/logging"
	"sidecar/internal/procexec"
	"sidecar/internal/services"
)

// DefaultSyncMarker is inserted before the extension of aligned output.
const DefaultSyncMarker = "synced"

// SyncedPath returns where the aligner writes its result for subtitle:
// show.eng.srt becomes show.eng.synced.srt.
func SyncedPath(subtitle, marker string) string {
	if marker == "" {
		marker = DefaultSyncMarker
	}
	ext := filepath.Ext(subtitle)
	return strings.TrimSuffix(subtitle, ext) + "." + marker + ext
}

// SyncOutcome describes one alignment attempt.
type SyncOutcome struct {
	Subtitle    string
	SyncedPath  string
	Duration    time.Duration
	ExitCode    int
	Diagnostics string
	DryRun      bool
}

// OK reports whether the attempt produced a promotable file.
func (o SyncOutcome) OK() bool {
	return o.ExitCode == 0 && o.SyncedPath != ""
}

// SyncError reports an aligner failure. The original subtitle is untouched
// whenever a SyncError is returned.
type SyncError struct {
	Media    string
	Subtitle string
	Reason   string
	Err      error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("sync %s", e.Subtitle)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error { return e.Err }

// Synchronizer invokes the external aligner.
type Synchronizer struct {
	Binary string
	Runner procexec.Runner
	// DryRun skips the output existence check; the runner is expected to be
	// a procexec.DryRunRunner.
	DryRun bool
	Logger *slog.Logger
}

// NewSynchronizer constructs a Synchronizer for binary.
func NewSynchronizer(binary string, runner procexec.Runner, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		Binary: binary,
		Runner: runner,
		Logger: logging.NewComponentLogger(logger, "aligner"),
	}
}

// Args builds the aligner invocation: <video> -i <subtitle> -o <output>.
func (s *Synchronizer) Args(media library.MediaFile, subtitle, output string) []string {
	return []string{media.Path, "-i", subtitle, "-o", output}
}

// Synchronize aligns subtitle against media's audio, writing output. It
// succeeds only when the aligner exits zero and output exists afterwards.
func (s *Synchronizer) Synchronize(ctx context.Context, media library.MediaFile, subtitle, output string) (SyncOutcome, error) {
	outcome := SyncOutcome{Subtitle: subtitle}
	if s == nil || s.Runner == nil {
		return outcome, services.Wrap(services.ErrConfiguration, "sync", "synchronize", "synchronizer not configured", nil)
	}
	if strings.TrimSpace(s.Binary) == "" {
		return outcome, services.Wrap(services.ErrConfiguration, "sync", "synchronize", "aligner binary not set", nil)
	}
	logger := logging.WithContext(ctx, s.Logger)

	if !s.DryRun {
		// A leftover from an earlier failed run must not pass the output check.
		if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
			return outcome, &SyncError{Media: media.Path, Subtitle: subtitle, Reason: "remove stale output", Err: err}
		}
	}

	start := time.Now()
	err := s.Runner.Run(ctx, s.Binary, s.Args(media, subtitle, output)...)
	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.ExitCode = services.ExitCode(err)
		var exitErr *procexec.ExitError
		if errors.As(err, &exitErr) {
			outcome.Diagnostics = exitErr.Diagnostics
		}
		// Partial output from a failed run is never promoted.
		if !s.DryRun {
			_ = os.Remove(output)
		}
		return outcome, &SyncError{Media: media.Path, Subtitle: subtitle, Err: err}
	}

	if s.DryRun {
		outcome.SyncedPath = output
		outcome.DryRun = true
		return outcome, nil
	}

	info, statErr := os.Stat(output)
	if statErr != nil || info.IsDir() {
		outcome.ExitCode = services.ExitFailure
		err := services.Wrap(services.ErrExternalTool, "sync", s.Binary, "exited 0 without producing output", statErr)
		return outcome, &SyncError{Media: media.Path, Subtitle: subtitle, Reason: "no output " + output, Err: err}
	}

	outcome.SyncedPath = output
	logger.Debug("aligner produced output",
		logging.Subtitle(subtitle),
		logging.Output(output),
		logging.Int64("size_bytes", info.Size()),
		logging.Duration("duration", outcome.Duration),
	)
	return outcome, nil
}
