package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sidecar/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "sidecar", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if got := strings.Join(cfg.Library.VideoExtensions, ","); got != "mkv,mp4,avi" {
		t.Fatalf("unexpected video extensions: %q", got)
	}
	if got := strings.Join(cfg.Library.SubtitleExtensions, ","); got != "ass,srt" {
		t.Fatalf("unexpected subtitle extensions: %q", got)
	}
	if cfg.Library.DuplicatePolicy != config.DuplicateLast {
		t.Fatalf("expected last-wins duplicate policy by default, got %q", cfg.Library.DuplicatePolicy)
	}
	if cfg.Sync.FailurePolicy != config.FailureHalt {
		t.Fatalf("expected halt failure policy by default, got %q", cfg.Sync.FailurePolicy)
	}
	if cfg.Sync.Binary != "ffs" || cfg.Mux.Binary != "mkvmerge" {
		t.Fatalf("unexpected binaries: %q %q", cfg.Sync.Binary, cfg.Mux.Binary)
	}
	if cfg.SyncTimeout() != 0 {
		t.Fatalf("expected no sync timeout by default, got %v", cfg.SyncTimeout())
	}
	keep, err := cfg.KeepTags()
	if err != nil || len(keep) != 2 || keep[0] != "eng" || keep[1] != "fre" {
		t.Fatalf("unexpected keep tags %v (%v)", keep, err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sidecar.toml")

	type payload struct {
		Library struct {
			SubtitleExtensions []string `toml:"subtitle_extensions"`
			DuplicatePolicy    string   `toml:"duplicate_policy"`
		} `toml:"library"`
		Sync struct {
			TimeoutSeconds int    `toml:"timeout_seconds"`
			FailurePolicy  string `toml:"failure_policy"`
		} `toml:"sync"`
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
	}
	custom := payload{}
	custom.Library.SubtitleExtensions = []string{".srt", " ssa ", "srt"}
	custom.Library.DuplicatePolicy = "ERROR"
	custom.Sync.TimeoutSeconds = 90
	custom.Sync.FailurePolicy = "continue"
	custom.Paths.StateDir = filepath.Join(tempDir, "state")

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q (exists=%v)", resolved, exists)
	}
	if got := strings.Join(cfg.Library.SubtitleExtensions, ","); got != "srt,ssa" {
		t.Fatalf("unexpected subtitle extensions %q", got)
	}
	if cfg.Library.DuplicatePolicy != config.DuplicateError {
		t.Fatalf("unexpected duplicate policy %q", cfg.Library.DuplicatePolicy)
	}
	if cfg.SyncTimeout().Seconds() != 90 {
		t.Fatalf("unexpected sync timeout %v", cfg.SyncTimeout())
	}
	if cfg.Sync.FailurePolicy != config.FailureContinue {
		t.Fatalf("unexpected failure policy %q", cfg.Sync.FailurePolicy)
	}
	if cfg.LedgerPath() != filepath.Join(tempDir, "state", "ledger.db") {
		t.Fatalf("unexpected ledger path %q", cfg.LedgerPath())
	}
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	missing := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to be reported as absent")
	}
	if resolved != missing {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Mux.OutputSuffix != ".MUX" {
		t.Fatalf("unexpected output suffix %q", cfg.Mux.OutputSuffix)
	}
}

func TestEnvironmentBinaryOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SIDECAR_SYNC_BINARY", "/opt/ffsubsync/bin/ffs")
	t.Setenv("SIDECAR_MKVMERGE_BINARY", " /usr/local/bin/mkvmerge ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.Binary != "/opt/ffsubsync/bin/ffs" {
		t.Fatalf("unexpected sync binary %q", cfg.Sync.Binary)
	}
	if cfg.Mux.Binary != "/usr/local/bin/mkvmerge" {
		t.Fatalf("unexpected mux binary %q", cfg.Mux.Binary)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"no subtitle extensions", func(c *config.Config) { c.Library.SubtitleExtensions = nil }, "subtitle_extensions"},
		{"no video extensions", func(c *config.Config) { c.Library.VideoExtensions = nil }, "video_extensions"},
		{"pattern extension", func(c *config.Config) { c.Library.SubtitleExtensions = []string{"s*t"} }, "pattern"},
		{"duplicate policy", func(c *config.Config) { c.Library.DuplicatePolicy = "first" }, "duplicate_policy"},
		{"failure policy", func(c *config.Config) { c.Sync.FailurePolicy = "retry" }, "failure_policy"},
		{"negative timeout", func(c *config.Config) { c.Sync.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"backup suffix", func(c *config.Config) { c.Sync.BackupSuffix = "old" }, "backup_suffix"},
		{"keep languages", func(c *config.Config) { c.Mux.KeepLanguages = []string{"English"} }, "keep_languages"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"colour", func(c *config.Config) { c.Logging.Colour = "rainbow" }, "logging.colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Sync.Binary != "ffs" {
		t.Fatalf("unexpected sample sync binary %q", cfg.Sync.Binary)
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("expected sample to load, exists=%v err=%v", exists, err)
	}
}
