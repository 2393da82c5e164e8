package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sidecar/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Colour = "never"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithFailurePolicy sets sync.failure_policy.
func WithFailurePolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.FailurePolicy = policy
	}
}

// WithSkipSynced enables ledger-based skipping.
func WithSkipSynced() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.SkipSynced = true
	}
}

// WithStubAligner installs AlignerScript as the sync binary.
func WithStubAligner() ConfigOption {
	return WithBinaryScript("ffs", AlignerScript, func(cfg *config.Config, path string) {
		cfg.Sync.Binary = path
	})
}

// WithStubMkvmerge installs MkvmergeScript as the mux binary.
func WithStubMkvmerge() ConfigOption {
	return WithBinaryScript("mkvmerge", MkvmergeScript, func(cfg *config.Config, path string) {
		cfg.Mux.Binary = path
	})
}

// WithBinaryScript writes script as an executable named name under the test's
// bin directory and lets assign point the config at it.
func WithBinaryScript(name, script string, assign func(*config.Config, string)) ConfigOption {
	return func(b *configBuilder) {
		path := WriteScript(b.t, filepath.Join(b.baseDir, "bin"), name, script)
		if assign != nil {
			assign(b.cfg, path)
		}
	}
}

// WithStubbedBinaries writes no-op stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external tools are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffs", "mkvmerge", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, binDir, name, "#!/bin/sh\nexit 0\n")
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
