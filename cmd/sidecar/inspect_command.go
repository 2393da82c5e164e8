package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sidecar/internal/language"
	"sidecar/internal/logging"
	"sidecar/internal/media/ffprobe"
	"sidecar/internal/preflight"
	"sidecar/internal/services"
)

type inspectRow struct {
	Video     string   `json:"video"`
	Audio     []string `json:"audio"`
	Subtitles []string `json:"subtitles"`
	Error     string   `json:"error,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var (
		scan       scanFlags
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [extension...]",
		Short: "List audio and subtitle stream languages of each video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			roots := scan.roots()
			if err := checkPreflight(cfg, preflight.CommandInspect, roots, false); err != nil {
				return err
			}
			s, runCtx, err := ctx.openSession(cmd, sessionOptions{command: "inspect", roots: roots, readOnly: true})
			if err != nil {
				return err
			}
			defer s.release()

			var (
				rows     []inspectRow
				firstErr error
			)
			for media, walkErr := range scan.walker(cfg, args).Files(roots) {
				if runCtx.Err() != nil {
					return services.Wrap(services.ErrInterrupted, "inspect", "walk", "stopped before completion", runCtx.Err())
				}
				if walkErr != nil {
					return walkErr
				}
				row := inspectRow{Video: media.Path}
				langs, err := ffprobe.StreamLanguages(runCtx, cfg.Inspect.FFprobeBinary, media.Path)
				if err != nil {
					row.Error = err.Error()
					if firstErr == nil {
						firstErr = err
					}
					logging.WarnWithContext(s.logger, "stream inspection failed", "inspect_failed",
						logging.String("video", media.Path),
						logging.Error(err),
						logging.Hint("run ffprobe manually on the file"),
						logging.Impact("languages unknown for this video"),
					)
				} else {
					row.Audio = langs.Audio
					row.Subtitles = langs.Subtitles
				}
				rows = append(rows, row)
			}

			if jsonOutput {
				if rows == nil {
					rows = []inspectRow{}
				}
				if err := writeJSON(cmd, rows); err != nil {
					return err
				}
				return firstErr
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No videos found")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				if row.Error != "" {
					table = append(table, []string{row.Video, "error", row.Error})
					continue
				}
				table = append(table, []string{row.Video, describeLanguages(row.Audio), describeLanguages(row.Subtitles)})
			}
			fmt.Fprintln(out, renderTable([]string{"Video", "Audio", "Subtitles"}, table, nil))
			return firstErr
		},
	}
	scan.register(cmd, false)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func describeLanguages(codes []string) string {
	if len(codes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		if code == "und" {
			parts = append(parts, "und")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", code, language.DisplayName(code)))
	}
	return strings.Join(parts, ", ")
}
