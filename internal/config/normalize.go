package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeSync()
	c.normalizeMux()
	c.normalizeInspect()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	c.Library.VideoExtensions = NormalizeExtensions(c.Library.VideoExtensions)
	c.Library.SubtitleExtensions = NormalizeExtensions(c.Library.SubtitleExtensions)
	c.Library.DuplicatePolicy = strings.ToLower(strings.TrimSpace(c.Library.DuplicatePolicy))
	if c.Library.DuplicatePolicy == "" {
		c.Library.DuplicatePolicy = DuplicateLast
	}
}

func (c *Config) normalizeSync() {
	c.Sync.Binary = strings.TrimSpace(c.Sync.Binary)
	if value, ok := os.LookupEnv("SIDECAR_SYNC_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Sync.Binary = strings.TrimSpace(value)
	}
	if c.Sync.Binary == "" {
		c.Sync.Binary = defaultSyncBinary
	}
	c.Sync.OutputMarker = strings.Trim(strings.TrimSpace(c.Sync.OutputMarker), ".")
	if c.Sync.OutputMarker == "" {
		c.Sync.OutputMarker = defaultOutputMarker
	}
	c.Sync.BackupSuffix = strings.TrimSpace(c.Sync.BackupSuffix)
	if c.Sync.BackupSuffix == "" {
		c.Sync.BackupSuffix = defaultBackupSuffix
	}
	c.Sync.FailurePolicy = strings.ToLower(strings.TrimSpace(c.Sync.FailurePolicy))
	if c.Sync.FailurePolicy == "" {
		c.Sync.FailurePolicy = FailureHalt
	}
}

func (c *Config) normalizeMux() {
	c.Mux.Binary = strings.TrimSpace(c.Mux.Binary)
	if value, ok := os.LookupEnv("SIDECAR_MKVMERGE_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Mux.Binary = strings.TrimSpace(value)
	}
	if c.Mux.Binary == "" {
		c.Mux.Binary = defaultMuxBinary
	}
	c.Mux.OutputSuffix = strings.TrimSpace(c.Mux.OutputSuffix)
	if c.Mux.OutputSuffix == "" {
		c.Mux.OutputSuffix = defaultMuxOutputSuffix
	}
	keep := make([]string, 0, len(c.Mux.KeepLanguages))
	for _, lang := range c.Mux.KeepLanguages {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			keep = append(keep, trimmed)
		}
	}
	c.Mux.KeepLanguages = keep
}

func (c *Config) normalizeInspect() {
	c.Inspect.FFprobeBinary = strings.TrimSpace(c.Inspect.FFprobeBinary)
	if c.Inspect.FFprobeBinary == "" {
		c.Inspect.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Colour = strings.ToLower(strings.TrimSpace(c.Logging.Colour))
	if c.Logging.Colour == "" {
		c.Logging.Colour = defaultLogColour
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.TextfilePath) == "" {
		c.Metrics.TextfilePath = ""
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

// NormalizeExtensions trims whitespace and leading dots and drops empty or
// repeated entries. Case is preserved because extension matching is
// case-sensitive, as on the filesystem.
func NormalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.TrimLeft(strings.TrimSpace(value), ".")
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
