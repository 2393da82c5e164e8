package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sidecar/internal/config"
	"sidecar/internal/ledger"
	"sidecar/internal/logging"
	"sidecar/internal/metrics"
	"sidecar/internal/procexec"
	"sidecar/internal/services"
	"sidecar/internal/workflow"
)

// session holds everything one mutating run needs: logger, lock, ledger,
// and metrics. finish releases all of it.
type session struct {
	cfg         *config.Config
	command     string
	runID       string
	dryRun      bool
	logger      *slog.Logger
	logPath     string
	closeLog    func() error
	lock        *flock.Flock
	store       *ledger.Store
	metrics     *metrics.Recorder
	metricsPath string
	stdout      io.Writer
	stderr      io.Writer
}

type sessionOptions struct {
	command string
	roots   []string
	dryRun  bool
	// readOnly commands neither lock nor write the ledger.
	readOnly bool
}

func (c *commandContext) newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, string, func() error, error) {
	level := cfg.Logging.Level
	if c.flags.verbose {
		level = "debug"
	}
	stderr := cmd.ErrOrStderr()
	opts := logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Writer: stderr,
		Colour: logging.ResolveColour(c.colourMode(), stderr),
	}
	var logPath string
	if c.flags.logFile {
		logPath = logging.SessionLogPath(cfg.Paths.LogDir, time.Now())
		opts.OutputPaths = []string{logPath}
		// ANSI codes would end up in the file too.
		opts.Colour = false
	}
	logger, closeLog, err := logging.New(opts)
	if err != nil {
		return nil, "", nil, fmt.Errorf("init logger: %w", err)
	}
	if logPath != "" {
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, logging.SessionLogPattern, cfg.Logging.RetentionDays, logPath)
	}
	return logger, logPath, closeLog, nil
}

func (c *commandContext) openSession(cmd *cobra.Command, opts sessionOptions) (*session, context.Context, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, logPath, closeLog, err := c.newLogger(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}

	s := &session{
		cfg:         cfg,
		command:     opts.command,
		runID:       uuid.NewString(),
		dryRun:      opts.dryRun,
		logger:      logger,
		logPath:     logPath,
		closeLog:    closeLog,
		metrics:     metrics.New(),
		metricsPath: c.metricsPath(),
		stdout:      cmd.OutOrStdout(),
		stderr:      cmd.ErrOrStderr(),
	}
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx := services.WithRunID(base, s.runID)

	if !opts.readOnly {
		s.lock = flock.New(cfg.LockPath())
		ok, err := s.lock.TryLock()
		if err != nil {
			s.release()
			return nil, nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			s.lock = nil
			s.release()
			return nil, nil, services.Wrap(services.ErrValidation, opts.command, "lock",
				"another sidecar run holds "+cfg.LockPath(), nil)
		}
		s.openLedger(ctx, opts)
	}

	s.logger.Debug("session started",
		logging.String("command", opts.command),
		logging.Strings("roots", opts.roots),
		logging.Bool("dry_run", opts.dryRun),
		logging.String("log_file", logPath),
	)
	return s, ctx, nil
}

// openLedger leaves s.store nil when the ledger cannot be used; the run
// proceeds without history.
func (s *session) openLedger(ctx context.Context, opts sessionOptions) {
	store, err := ledger.Open(s.cfg.LedgerPath())
	if err != nil {
		logging.WarnWithContext(s.logger, "ledger unavailable; history will not be recorded", "ledger_unavailable",
			logging.String("path", s.cfg.LedgerPath()),
			logging.Error(err),
			logging.Hint("check state_dir permissions or remove a corrupt ledger.db"),
			logging.Impact("skip_synced and history disabled for this run"),
		)
		return
	}
	run := ledger.Run{ID: s.runID, Command: opts.command, Roots: opts.roots, DryRun: opts.dryRun, StartedAt: time.Now()}
	if err := store.BeginRun(ctx, run); err != nil {
		logging.WarnWithContext(s.logger, "ledger run not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.Hint("check disk space in state_dir"),
			logging.Impact("history disabled for this run"),
		)
		_ = store.Close()
		return
	}
	s.store = store
}

// env returns the collaborators shared by the pipelines.
func (s *session) env() workflow.Env {
	env := workflow.Env{
		RunID:   s.runID,
		Logger:  s.logger,
		Metrics: s.metrics,
		DryRun:  s.dryRun,
	}
	if s.store != nil {
		env.Ledger = s.store
	}
	return env
}

// runner returns the process runner for an external tool. Dry runs print
// commands to stdout; real runs pass the tool's own output straight through
// so its progress is visible live.
func (s *session) runner(timeout time.Duration) procexec.Runner {
	if s.dryRun {
		return procexec.DryRunRunner{Out: s.stdout}
	}
	return &procexec.ExecRunner{
		Stdout:  s.stdout,
		Stderr:  s.stderr,
		Timeout: timeout,
		Logger:  s.logger,
	}
}

// finish records the outcome, writes metrics, releases resources, and returns
// the error that decides the exit status.
func (s *session) finish(ctx context.Context, summary workflow.Summary, runErr error) error {
	exitCode := services.ExitCode(runErr)
	status := ledger.RunSucceeded
	switch {
	case summary.Interrupted || errors.Is(runErr, services.ErrInterrupted):
		status = ledger.RunInterrupted
	case runErr != nil:
		status = ledger.RunFailed
	}

	bg := context.WithoutCancel(ctx)
	if s.store != nil {
		if err := s.store.FinishRun(bg, s.runID, status, exitCode, summary.Videos, len(summary.Failures)); err != nil {
			logging.WarnWithContext(s.logger, "ledger run not finalized", "ledger_write_failed",
				logging.Error(err),
				logging.Hint("check disk space in state_dir"),
				logging.Impact("history shows this run as running"),
			)
		}
	}

	s.metrics.Finish(s.command, exitCode, time.Now())
	if err := s.metrics.WriteTextfile(s.metricsPath); err != nil {
		logging.WarnWithContext(s.logger, "metrics textfile not written", "metrics_write_failed",
			logging.String("path", s.metricsPath),
			logging.Error(err),
			logging.Hint("check metrics.textfile_path"),
			logging.Impact("scrapers see stale values"),
		)
	}

	printSummary(s.stdout, summary)
	s.logger.Debug("session finished",
		logging.String("status", status),
		logging.ExitCode(exitCode),
		logging.Duration("duration", summary.Duration),
	)
	s.release()
	return runErr
}

func (s *session) release() {
	if s.store != nil {
		_ = s.store.Close()
		s.store = nil
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
	if s.closeLog != nil {
		_ = s.closeLog()
		s.closeLog = nil
	}
}

func printSummary(w io.Writer, summary workflow.Summary) {
	fmt.Fprintf(w, "%s: %d videos", summary.Command, summary.Videos)
	if summary.Subtitles > 0 {
		fmt.Fprintf(w, ", %d subtitles", summary.Subtitles)
	}
	if summary.Promoted > 0 {
		fmt.Fprintf(w, ", %d promoted", summary.Promoted)
	}
	if summary.Muxed > 0 {
		fmt.Fprintf(w, ", %d muxed", summary.Muxed)
	}
	if summary.Planned > 0 {
		fmt.Fprintf(w, ", %d planned", summary.Planned)
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", summary.Skipped)
	}
	if n := len(summary.Failures); n > 0 {
		fmt.Fprintf(w, ", %d failed", n)
	}
	fmt.Fprintf(w, " (%s)\n", summary.Duration.Round(time.Millisecond))
	for _, failure := range summary.Failures {
		target := failure.Subtitle
		if target == "" {
			target = failure.Media
		}
		if target == "" {
			target = failure.Stage
		}
		fmt.Fprintf(w, "  failed %s: %v\n", target, failure.Err)
	}
}
