package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateMux(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLibrary() error {
	if len(c.Library.VideoExtensions) == 0 {
		return errors.New("library.video_extensions must include at least one extension")
	}
	if len(c.Library.SubtitleExtensions) == 0 {
		return errors.New("library.subtitle_extensions must include at least one extension")
	}
	for _, ext := range append(append([]string{}, c.Library.VideoExtensions...), c.Library.SubtitleExtensions...) {
		if strings.ContainsAny(ext, `/\*?[`) {
			return fmt.Errorf("library extension %q contains path or pattern characters", ext)
		}
	}
	switch c.Library.DuplicatePolicy {
	case DuplicateLast, DuplicateError:
	default:
		return fmt.Errorf("library.duplicate_policy must be %q or %q, got %q", DuplicateLast, DuplicateError, c.Library.DuplicatePolicy)
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.TimeoutSeconds < 0 {
		return errors.New("sync.timeout_seconds must be >= 0")
	}
	if !strings.HasPrefix(c.Sync.BackupSuffix, ".") || strings.ContainsAny(c.Sync.BackupSuffix, `/\`) {
		return fmt.Errorf("sync.backup_suffix must start with '.' and contain no path separators, got %q", c.Sync.BackupSuffix)
	}
	if strings.ContainsAny(c.Sync.OutputMarker, `/\`) {
		return fmt.Errorf("sync.output_marker must not contain path separators, got %q", c.Sync.OutputMarker)
	}
	switch c.Sync.FailurePolicy {
	case FailureHalt, FailureContinue:
	default:
		return fmt.Errorf("sync.failure_policy must be %q or %q, got %q", FailureHalt, FailureContinue, c.Sync.FailurePolicy)
	}
	return nil
}

func (c *Config) validateMux() error {
	if c.Mux.TimeoutSeconds < 0 {
		return errors.New("mux.timeout_seconds must be >= 0")
	}
	if strings.ContainsAny(c.Mux.OutputSuffix, `/\`) {
		return fmt.Errorf("mux.output_suffix must not contain path separators, got %q", c.Mux.OutputSuffix)
	}
	if _, err := c.KeepTags(); err != nil {
		return fmt.Errorf("mux.keep_languages: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Colour {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.colour must be auto, always, or never, got %q", c.Logging.Colour)
	}
	return nil
}
