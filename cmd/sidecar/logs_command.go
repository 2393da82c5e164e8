package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sidecar/internal/logging"
	"sidecar/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		file   string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the latest session log written with --log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := strings.TrimSpace(file)
			if path == "" {
				path, err = logs.Latest(cfg.Paths.LogDir, logging.SessionLogPattern)
				if err != nil {
					return err
				}
			}
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, out, 250*time.Millisecond)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	cmd.Flags().StringVar(&file, "file", "", "Read this log file instead of the newest session log")
	return cmd
}
