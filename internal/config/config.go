package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"sidecar/internal/language"
)

//go:embed sample_config.toml
var sampleConfig string

// Duplicate tag policies for subtitle discovery.
const (
	DuplicateLast  = "last"
	DuplicateError = "error"
)

// Failure policies for the library walk.
const (
	FailureHalt     = "halt"
	FailureContinue = "continue"
)

// Paths contains directories sidecar writes to.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Library describes how video files and their sidecar subtitles are found.
type Library struct {
	VideoExtensions    []string `toml:"video_extensions"`
	SubtitleExtensions []string `toml:"subtitle_extensions"`
	Recursive          bool     `toml:"recursive"`
	DuplicatePolicy    string   `toml:"duplicate_policy"`
}

// Sync configures the external subtitle aligner.
type Sync struct {
	Binary         string `toml:"binary"`
	OutputMarker   string `toml:"output_marker"`
	BackupSuffix   string `toml:"backup_suffix"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	FailurePolicy  string `toml:"failure_policy"`
	SkipSynced     bool   `toml:"skip_synced"`
}

// Mux configures the external multiplexer used by the remux commands.
type Mux struct {
	Binary         string   `toml:"binary"`
	OutputSuffix   string   `toml:"output_suffix"`
	KeepLanguages  []string `toml:"keep_languages"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Inspect configures the stream language inspection tool.
type Inspect struct {
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	Colour        string `toml:"colour"`
	RetentionDays int    `toml:"retention_days"`
}

// Metrics configures the Prometheus textfile export written after each run.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for sidecar.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Library: video/subtitle extensions, recursion, duplicate tag policy
//   - Sync: aligner binary, naming, timeout, failure policy
//   - Mux: multiplexer binary, output naming, default keep-list
//   - Inspect: ffprobe binary
//   - Logging: log format, level, colour, and retention
//   - Metrics: optional textfile export
type Config struct {
	Paths   Paths   `toml:"paths"`
	Library Library `toml:"library"`
	Sync    Sync    `toml:"sync"`
	Mux     Mux     `toml:"mux"`
	Inspect Inspect `toml:"inspect"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sidecar.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SyncTimeout returns the aligner timeout; zero means wait indefinitely.
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.Sync.TimeoutSeconds) * time.Second
}

// MuxTimeout returns the multiplexer timeout; zero means wait indefinitely.
func (c *Config) MuxTimeout() time.Duration {
	return time.Duration(c.Mux.TimeoutSeconds) * time.Second
}

// KeepTags returns the configured default keep-list as validated tags.
func (c *Config) KeepTags() ([]language.Tag, error) {
	return language.ParseList(c.Mux.KeepLanguages...)
}

// LedgerPath is the SQLite database recording promoted subtitles.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath is the file guarding against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "sidecar.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
