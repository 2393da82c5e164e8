package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sidecar/internal/logging"
	"sidecar/internal/services"
)

func TestConsoleLoggerWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closeFn()

	logging.NewComponentLogger(logger, "sync").Info("subtitle promoted", logging.String("tag", "eng"))

	line := buf.String()
	for _, fragment := range []string{"INFO", "sync: subtitle promoted", "tag=eng"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no colour codes, got %q", line)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerDebugLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := logging.New(logging.Options{Format: "console", Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected filtering: %q", buf.String())
	}
}

func TestConsoleLoggerColour(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := logging.New(logging.Options{Format: "console", Writer: &buf, Colour: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()
	logger.Error("boom")
	if !strings.Contains(buf.String(), "\x1b[31mERROR") {
		t.Fatalf("expected red error label, got %q", buf.String())
	}
}

func TestJSONLoggerWritesFileAndContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "run.log")
	logger, closeFn, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "promote")
	logging.WithContext(ctx, logger).Info("done")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &payload); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	if payload["run_id"] != "run-1" || payload["stage"] != "promote" {
		t.Fatalf("missing context fields: %v", payload)
	}
	if payload["level"] != "info" || payload["msg"] != "done" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestSessionLogPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
	got := logging.SessionLogPath("/logs", now)
	if got != filepath.Join("/logs", "sidecar_20240309_140506.log") {
		t.Fatalf("unexpected session log path %q", got)
	}
	if ok, _ := filepath.Match(logging.SessionLogPattern, filepath.Base(got)); !ok {
		t.Fatalf("session log %q does not match pattern", got)
	}
}

func TestResolveColour(t *testing.T) {
	var buf bytes.Buffer
	if logging.ResolveColour("auto", &buf) {
		t.Fatal("buffers are never terminals")
	}
	if !logging.ResolveColour("always", &buf) {
		t.Fatal("always should force colour")
	}
	if logging.ResolveColour("never", os.Stdout) {
		t.Fatal("never should disable colour")
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "sidecar_20200101_000000.log")
	keep := filepath.Join(dir, "sidecar_20200101_000001.log")
	fresh := filepath.Join(dir, "sidecar_20990101_000000.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, keep, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -90)
	for _, p := range []string{old, keep, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), dir, logging.SessionLogPattern, 30, keep)
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("expected old log to be removed")
	}
	for _, p := range []string{keep, fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to remain: %v", p, err)
		}
	}
	if logging.CleanupOldLogs(nil, dir, logging.SessionLogPattern, 0, "") != 0 {
		t.Fatal("retention 0 must not prune")
	}
}

func TestWarnWithContextKeepsCallerFieldsAndFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
		logging.Subtitle("show.eng.srt"),
		logging.Lang("eng"),
		logging.ExitCode(3),
		logging.Hint("check disk space"),
	)

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	want := map[string]any{
		logging.FieldSubtitle:  "show.eng.srt",
		logging.FieldLanguage:  "eng",
		logging.FieldExitCode:  float64(3),
		logging.FieldErrorHint: "check disk space",
		logging.FieldEventType: "ledger_write_failed",
	}
	for key, value := range want {
		if payload[key] != value {
			t.Fatalf("%s = %v, want %v (payload %v)", key, payload[key], value, payload)
		}
	}
	if impact, _ := payload[logging.FieldImpact].(string); impact == "" {
		t.Fatalf("expected default impact, got %v", payload)
	}
}
