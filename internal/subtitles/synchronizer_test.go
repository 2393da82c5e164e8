package subtitles

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"sidecar/internal/library"
	"sidecar/internal/procexec"
	"sidecar/internal/services"
)

type recordedCall struct {
	name string
	args []string
}

func TestSyncedPath(t *testing.T) {
	if got := SyncedPath("/x/show.eng.srt", ""); got != "/x/show.eng.synced.srt" {
		t.Fatalf("SyncedPath = %q", got)
	}
	if got := SyncedPath("show.fre.ass", "aligned"); got != "show.fre.aligned.ass" {
		t.Fatalf("SyncedPath = %q", got)
	}
}

func TestSynchronizeSuccess(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "show.mkv", "show.eng.srt")
	media := library.MediaFile{Path: filepath.Join(dir, "show.mkv")}
	sub := filepath.Join(dir, "show.eng.srt")
	out := SyncedPath(sub, "")

	var calls []recordedCall
	runner := procexec.RunnerFunc(func(_ context.Context, name string, args ...string) error {
		calls = append(calls, recordedCall{name: name, args: args})
		return os.WriteFile(args[len(args)-1], []byte("synced"), 0o644)
	})
	s := NewSynchronizer("ffs", runner, nil)
	outcome, err := s.Synchronize(context.Background(), media, sub, out)
	if err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if !outcome.OK() || outcome.SyncedPath != out {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(calls) != 1 || calls[0].name != "ffs" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	wantArgs := []string{media.Path, "-i", sub, "-o", out}
	if !slices.Equal(calls[0].args, wantArgs) {
		t.Fatalf("args = %v, want %v", calls[0].args, wantArgs)
	}
}

func TestSynchronizeFailureLeavesOriginalUntouched(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "show.mkv", "show.eng.srt")
	media := library.MediaFile{Path: filepath.Join(dir, "show.mkv")}
	sub := filepath.Join(dir, "show.eng.srt")
	out := SyncedPath(sub, "")

	runner := procexec.RunnerFunc(func(_ context.Context, name string, args ...string) error {
		_ = os.WriteFile(out, []byte("partial"), 0o644)
		return &procexec.ExitError{Name: name, ExitCode: 2, Diagnostics: "no speech found"}
	})
	outcome, err := NewSynchronizer("ffs", runner, nil).Synchronize(context.Background(), media, sub, out)
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError, got %v", err)
	}
	if services.ExitCode(err) != 2 || outcome.ExitCode != 2 {
		t.Fatalf("exit status not surfaced: %d / %+v", services.ExitCode(err), outcome)
	}
	if outcome.Diagnostics != "no speech found" {
		t.Fatalf("diagnostics = %q", outcome.Diagnostics)
	}
	data, readErr := os.ReadFile(sub)
	if readErr != nil || string(data) != "show.eng.srt" {
		t.Fatalf("original changed: %q, %v", data, readErr)
	}
	for _, p := range []string{sub + ".old", out} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist", p)
		}
	}
}

func TestSynchronizeZeroExitWithoutOutputFails(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "show.mkv", "show.eng.srt", "show.eng.synced.srt")
	media := library.MediaFile{Path: filepath.Join(dir, "show.mkv")}
	sub := filepath.Join(dir, "show.eng.srt")

	runner := procexec.RunnerFunc(func(context.Context, string, ...string) error { return nil })
	outcome, err := NewSynchronizer("ffs", runner, nil).Synchronize(context.Background(), media, sub, SyncedPath(sub, ""))
	if err == nil {
		t.Fatal("expected failure when no output is produced, even with a stale file present")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if outcome.OK() {
		t.Fatalf("outcome should not be OK: %+v", outcome)
	}
}

func TestSynchronizeDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "show.mkv", "show.eng.srt")
	sub := filepath.Join(dir, "show.eng.srt")
	s := NewSynchronizer("ffs", procexec.DryRunRunner{Out: io.Discard}, nil)
	s.DryRun = true
	outcome, err := s.Synchronize(context.Background(), library.MediaFile{Path: filepath.Join(dir, "show.mkv")}, sub, SyncedPath(sub, ""))
	if err != nil || !outcome.DryRun {
		t.Fatalf("dry run failed: %+v, %v", outcome, err)
	}
}

func TestSynchronizeRequiresConfiguration(t *testing.T) {
	var s *Synchronizer
	if _, err := s.Synchronize(context.Background(), library.MediaFile{Path: "a.mkv"}, "a.eng.srt", "out"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
