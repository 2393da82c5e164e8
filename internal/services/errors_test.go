package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sidecar/internal/services"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("exit status %d", int(s)) }
func (s statusErr) ExitStatus() int { return int(s) }

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "sync", "ffs", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"sync", "ffs", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("x"), 1},
		{"child status", fmt.Errorf("sync: %w", statusErr(3)), 3},
		{"zero child status", statusErr(0), 1},
		{"timeout", services.Wrap(services.ErrTimeout, "sync", "", "", nil), 124},
		{"deadline", context.DeadlineExceeded, 124},
		{"canceled", fmt.Errorf("walk: %w", context.Canceled), 130},
		{"interrupt beats status", fmt.Errorf("%w: %w", services.ErrInterrupted, statusErr(2)), 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
