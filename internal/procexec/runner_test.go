package procexec_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sidecar/internal/procexec"
	"sidecar/internal/services"
)

func TestExecRunnerPassesOutputThrough(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := &procexec.ExecRunner{Stdout: &stdout, Stderr: &stderr}
	if err := runner.Run(context.Background(), "/bin/sh", "-c", "echo out; echo err >&2"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if stdout.String() != "out\n" {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
	if stderr.String() != "err\n" {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestExecRunnerReportsExitStatus(t *testing.T) {
	var stderr bytes.Buffer
	runner := &procexec.ExecRunner{Stderr: &stderr}
	err := runner.Run(context.Background(), "/bin/sh", "-c", "echo first >&2; echo 'bad subtitle' >&2; exit 3")
	var exitErr *procexec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", exitErr.ExitCode)
	}
	if !strings.Contains(exitErr.Diagnostics, "bad subtitle") {
		t.Fatalf("diagnostics missing stderr: %q", exitErr.Diagnostics)
	}
	if !strings.HasSuffix(err.Error(), "bad subtitle") {
		t.Fatalf("error should end with last stderr line: %q", err.Error())
	}
	if !strings.Contains(stderr.String(), "first") {
		t.Fatal("stderr should still be passed through")
	}
	if got := services.ExitCode(err); got != 3 {
		t.Fatalf("ExitCode = %d, want 3", got)
	}
}

func TestExecRunnerDiagnosticsAreBounded(t *testing.T) {
	runner := &procexec.ExecRunner{TailBytes: 16}
	err := runner.Run(context.Background(), "/bin/sh", "-c", "printf '0123456789abcdefghijklmnopqrstuvwxyz' >&2; exit 1")
	var exitErr *procexec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Diagnostics != "klmnopqrstuvwxyz" {
		t.Fatalf("unexpected tail %q", exitErr.Diagnostics)
	}
}

func TestExecRunnerTimeoutInterruptsChild(t *testing.T) {
	runner := &procexec.ExecRunner{Timeout: 200 * time.Millisecond}
	start := time.Now()
	err := runner.Run(context.Background(), "/bin/sh", "-c", "trap 'exit 7' INT; while :; do sleep 0.05; done")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if got := services.ExitCode(err); got != services.ExitTimeout {
		t.Fatalf("ExitCode = %d, want %d", got, services.ExitTimeout)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("runner did not return promptly after interrupt")
	}
}

func TestExecRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	runner := &procexec.ExecRunner{}
	err := runner.Run(ctx, "/bin/sh", "-c", "trap 'exit 0' INT; while :; do sleep 0.05; done")
	if !errors.Is(err, services.ErrInterrupted) {
		t.Fatalf("expected interrupted error, got %v", err)
	}
	if got := services.ExitCode(err); got != services.ExitInterrupted {
		t.Fatalf("ExitCode = %d, want %d", got, services.ExitInterrupted)
	}

	if err := runner.Run(ctx, "/bin/sh", "-c", "true"); !errors.Is(err, services.ErrInterrupted) {
		t.Fatalf("expected already-cancelled context to short-circuit, got %v", err)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	runner := &procexec.ExecRunner{}
	err := runner.Run(context.Background(), "sidecar-definitely-missing-binary")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDryRunRunnerPrintsCommand(t *testing.T) {
	var out bytes.Buffer
	runner := procexec.DryRunRunner{Out: &out}
	if err := runner.Run(context.Background(), "mkvmerge", "-o", "Movie (2020).MUX.mkv", "Movie (2020).mkv"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "dry-run: mkvmerge -o 'Movie (2020).MUX.mkv' 'Movie (2020).mkv'\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestFormatCommandQuoting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain", []string{"a.srt"}, "ffs a.srt"},
		{"empty", []string{""}, "ffs ''"},
		{"apostrophe", []string{"it's.srt"}, `ffs 'it'\''s.srt'`},
		{"brackets", []string{"[x].srt"}, "ffs '[x].srt'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := procexec.FormatCommand("ffs", tt.args...); got != tt.want {
				t.Fatalf("FormatCommand = %q, want %q", got, tt.want)
			}
		})
	}
}
