package workflow

import (
	"context"
	"errors"
	"time"

	"sidecar/internal/services"
)

// Failure policies.
const (
	FailureHalt     = "halt"
	FailureContinue = "continue"
)

// Failure records one failed video or subtitle.
type Failure struct {
	Media    string
	Subtitle string
	Stage    string
	Err      error
}

// Summary reports what a pipeline run did.
type Summary struct {
	RunID       string
	Command     string
	Videos      int
	Subtitles   int
	Promoted    int
	Muxed       int
	Skipped     int
	Planned     int
	Failures    []Failure
	Interrupted bool
	Duration    time.Duration
}

// Err returns the first failure, which decides the exit status of the run.
func (s Summary) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	return s.Failures[0].Err
}

// ExitCode maps the run outcome to a process exit status.
func (s Summary) ExitCode() int {
	if s.Interrupted {
		return services.ExitInterrupted
	}
	return services.ExitCode(s.Err())
}

func (s *Summary) fail(media, subtitle, stage string, err error) {
	s.Failures = append(s.Failures, Failure{Media: media, Subtitle: subtitle, Stage: stage, Err: err})
}

// interrupted reports whether err or ctx indicate an operator interrupt.
func interrupted(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, services.ErrInterrupted) || errors.Is(err, context.Canceled)
}

func interruptError(ctx context.Context) error {
	return services.Wrap(services.ErrInterrupted, "walk", "", "stopped before completion", ctx.Err())
}
