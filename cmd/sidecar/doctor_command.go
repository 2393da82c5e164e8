package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sidecar/internal/config"
	"sidecar/internal/deps"
	"sidecar/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var dirs []string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out) && ctx.colourMode() != "never"
			ok := writeDoctorReport(out, cfg, dirs, colorize)
			if !ok {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&dirs, "dir", "d", nil, "Library directories to check for write access")
	return cmd
}

func writeDoctorReport(out io.Writer, cfg *config.Config, roots []string, colorize bool) bool {
	healthy := true

	for _, line := range renderSectionHeader("Directories", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, r := range []preflight.Result{
		preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	} {
		if !r.Passed {
			healthy = false
		}
		fmt.Fprintln(out, resultStatusLine(r, colorize))
	}
	for _, root := range roots {
		r := preflight.CheckLibraryRoot(root)
		if !r.Passed {
			healthy = false
		}
		fmt.Fprintln(out, resultStatusLine(r, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("External tools", colorize) {
		fmt.Fprintln(out, line)
	}
	statuses := preflight.CheckSystemDeps(cfg, "")
	lines := dependencyLines(statuses, colorize)
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	if len(deps.MissingRequired(statuses)) > 0 {
		healthy = false
	}
	return healthy
}

func resultStatusLine(r preflight.Result, colorize bool) string {
	if r.Passed {
		return renderStatusLine(r.Name, statusOK, r.Detail, colorize)
	}
	return renderStatusLine(r.Name, statusError, r.Detail, colorize)
}
