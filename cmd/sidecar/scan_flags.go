package main

import (
	"strings"

	"github.com/spf13/cobra"

	"sidecar/internal/config"
	"sidecar/internal/library"
	"sidecar/internal/preflight"
	"sidecar/internal/services"
	"sidecar/internal/workflow"
)

// scanFlags are shared by every command that walks the library.
type scanFlags struct {
	dirs      []string
	recursive bool
	keepGoing bool
	dryRun    bool
}

func (f *scanFlags) register(cmd *cobra.Command, mutating bool) {
	cmd.Flags().StringSliceVarP(&f.dirs, "dir", "d", nil, "Library directory or video file (repeatable, default: current directory)")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "Descend into subdirectories")
	if mutating {
		cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "Print external commands instead of running them")
		cmd.Flags().BoolVar(&f.keepGoing, "keep-going", false, "Continue with the next video after a failure")
	}
}

func (f *scanFlags) roots() []string {
	if len(f.dirs) == 0 {
		return []string{"."}
	}
	return f.dirs
}

// walker builds the library walker. Positional arguments replace the
// configured video extensions.
func (f *scanFlags) walker(cfg *config.Config, extensions []string, skipSuffixes ...string) library.Walker {
	exts := cfg.Library.VideoExtensions
	if len(extensions) > 0 {
		exts = make([]string, 0, len(extensions))
		for _, ext := range extensions {
			exts = append(exts, strings.TrimPrefix(strings.TrimSpace(ext), "."))
		}
	}
	var skip []string
	for _, suffix := range skipSuffixes {
		if suffix != "" {
			skip = append(skip, suffix)
		}
	}
	return library.Walker{
		Extensions:       exts,
		Recursive:        f.recursive || cfg.Library.Recursive,
		SkipStemSuffixes: skip,
	}
}

func (f *scanFlags) failurePolicy(cfg *config.Config) string {
	if f.keepGoing {
		return workflow.FailureContinue
	}
	return cfg.Sync.FailurePolicy
}

// checkPreflight fails fast when a required tool or directory is unusable.
// Dry runs skip the tool lookup since nothing is executed.
func checkPreflight(cfg *config.Config, command string, roots []string, dryRun bool) error {
	var results []preflight.Result
	if dryRun {
		for _, root := range roots {
			results = append(results, preflight.CheckLibraryRoot(root))
		}
	} else {
		results = preflight.RunAll(cfg, command, roots)
	}
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return services.Wrap(services.ErrConfiguration, command, "preflight", strings.Join(parts, "; "), nil)
}
