package procexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"sidecar/internal/logging"
	"sidecar/internal/services"
)

const defaultTailBytes = 4096

// Runner executes an external command and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) error {
	return f(ctx, name, args...)
}

// ExitError reports a child process that exited with a non-zero status.
type ExitError struct {
	Name        string
	Args        []string
	ExitCode    int
	Diagnostics string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Name, e.ExitCode)
	if diag := strings.TrimSpace(e.Diagnostics); diag != "" {
		msg += ": " + lastLine(diag)
	}
	return msg
}

// ExitStatus exposes the child's status for services.ExitCode.
func (e *ExitError) ExitStatus() int {
	return e.ExitCode
}

// ExecRunner spawns real processes.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Timeout bounds each invocation. Zero disables the bound.
	Timeout time.Duration
	// TailBytes caps how much stderr is retained for ExitError.Diagnostics.
	TailBytes int
	Logger    *slog.Logger
}

// Run executes name with args, passing output through to the configured sinks.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrInterrupted, "exec", name, "not started", err)
	}
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("running external tool",
		logging.Binary(name),
		logging.String("command", FormatCommand(name, args...)),
	)

	tail := newTailBuffer(r.TailBytes)
	cmd := exec.CommandContext(runCtx, name, args...) //nolint:gosec
	cmd.Stdout = orDiscard(r.Stdout)
	cmd.Stderr = io.MultiWriter(orDiscard(r.Stderr), tail)
	// Interrupt instead of kill; with no WaitDelay, Wait blocks until the
	// child has actually exited.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	switch {
	case err == nil:
		logger.Debug("external tool finished",
			logging.Binary(name),
			logging.Duration("duration", elapsed),
		)
		return nil
	case ctx.Err() != nil:
		return services.Wrap(services.ErrInterrupted, "exec", name, "interrupted", ctx.Err())
	case runCtx.Err() != nil:
		logging.WarnWithContext(logger, "external tool timed out", "tool_timeout",
			logging.Binary(name),
			logging.Duration("timeout", r.Timeout),
			logging.String("diagnostics", lastLine(strings.TrimSpace(tail.String()))),
			logging.Hint("raise timeout_seconds or check the tool manually"),
			logging.Impact("file left unprocessed"),
		)
		return services.Wrap(services.ErrTimeout, "exec", name, fmt.Sprintf("timed out after %s", r.Timeout), err)
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return services.Wrap(services.ErrNotFound, "exec", name, "start failed", err)
	}
	return exitErr(name, args, err, tail)
}

func exitErr(name string, args []string, err error, tail *tailBuffer) error {
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return fmt.Errorf("%s: %w", name, err)
	}
	code := ee.ExitCode()
	if code < 0 {
		// Terminated by a signal.
		code = services.ExitFailure
	}
	return &ExitError{
		Name:        name,
		Args:        append([]string(nil), args...),
		ExitCode:    code,
		Diagnostics: tail.String(),
	}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}

// DryRunRunner prints each command instead of executing it.
type DryRunRunner struct {
	Out io.Writer
}

// Run writes the command line to Out and reports success.
func (r DryRunRunner) Run(_ context.Context, name string, args ...string) error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintf(out, "dry-run: %s\n", FormatCommand(name, args...))
	return err
}

// FormatCommand renders a command line with shell quoting where needed.
func FormatCommand(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(name))
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[](){}<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
