package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" || results[0].Resolved != present {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail: %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("optional dependencies must not count as missing: %#v", missing)
	}
	err := Error(results)
	if err == nil || !strings.Contains(err.Error(), "Missing") {
		t.Fatalf("unexpected error %v", err)
	}
	if Error(results[:1]) != nil {
		t.Fatal("expected nil error when everything is present")
	}
}

func TestCheckFFmpegForAlignerPrefersSibling(t *testing.T) {
	dir := t.TempDir()
	aligner := writeStub(t, dir, "ffs")
	ffmpeg := writeStub(t, dir, "ffmpeg")

	status := CheckFFmpegForAligner(aligner)
	if !status.Available || status.Command != ffmpeg {
		t.Fatalf("expected sibling ffmpeg, got %#v", status)
	}
}

func TestCheckFFmpegForAlignerFallsBackToPath(t *testing.T) {
	alignerDir := t.TempDir()
	aligner := writeStub(t, alignerDir, "ffs")
	pathDir := t.TempDir()
	writeStub(t, pathDir, "ffmpeg")
	t.Setenv("PATH", pathDir)

	status := CheckFFmpegForAligner(aligner)
	if !status.Available || status.Command != "ffmpeg" || status.Resolved != filepath.Join(pathDir, "ffmpeg") {
		t.Fatalf("expected PATH ffmpeg, got %#v", status)
	}

	t.Setenv("PATH", t.TempDir())
	status = CheckFFmpegForAligner(aligner)
	if status.Available || status.Detail == "" {
		t.Fatalf("expected unavailable ffmpeg, got %#v", status)
	}
}
