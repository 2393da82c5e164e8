package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"sidecar/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckDirectoryAccess("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLibraryRootAcceptsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "show.mkv")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckLibraryRoot(f); !result.Passed {
		t.Fatalf("expected pass for file in writable dir: %+v", result)
	}
	if result := CheckLibraryRoot(filepath.Join(t.TempDir(), "missing")); result.Passed {
		t.Fatal("expected failure for missing root")
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	binDir := t.TempDir()
	aligner := filepath.Join(binDir, "ffs")
	if err := os.WriteFile(aligner, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Sync.Binary = aligner
	cfg.Mux.Binary = "missing-mkvmerge"

	results := RunAll(&cfg, CommandSync, []string{t.TempDir()})
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("sync should pass without ffmpeg (optional): %+v", failed)
	}

	results = RunAll(&cfg, CommandMux, nil)
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "mkvmerge" {
		t.Fatalf("expected mkvmerge failure, got %+v", failed)
	}

	if got := len(Requirements(&cfg, "")); got != 3 {
		t.Fatalf("expected all three tools, got %d", got)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if RunAll(nil, CommandSync, nil) != nil {
		t.Fatal("expected nil results")
	}
}
