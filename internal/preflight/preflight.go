package preflight

import (
	"path/filepath"

	"sidecar/internal/config"
)

// Commands understood by Requirements.
const (
	CommandSync    = "sync"
	CommandMux     = "mux"
	CommandInspect = "inspect"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes directory and tool checks for command against roots.
func RunAll(cfg *config.Config, command string, roots []string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	for _, root := range roots {
		results = append(results, CheckLibraryRoot(root))
	}
	for _, status := range CheckSystemDeps(cfg, command) {
		detail := status.Resolved
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func parentDir(path string) string {
	return filepath.Dir(path)
}
