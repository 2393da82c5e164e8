package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sidecar/internal/config"
)

type globalFlags struct {
	configPath  string
	verbose     bool
	logFile     bool
	colour      string
	metricsFile string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) colourMode() string {
	if mode := strings.TrimSpace(c.flags.colour); mode != "" {
		return mode
	}
	if c.config != nil {
		return c.config.Logging.Colour
	}
	return "auto"
}

func (c *commandContext) metricsPath() string {
	if path := strings.TrimSpace(c.flags.metricsFile); path != "" {
		return path
	}
	if c.config != nil {
		return c.config.Metrics.TextfilePath
	}
	return ""
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
