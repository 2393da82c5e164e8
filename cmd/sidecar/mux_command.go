package main

import (
	"strings"

	"github.com/spf13/cobra"

	"sidecar/internal/config"
	"sidecar/internal/language"
	"sidecar/internal/mux"
	"sidecar/internal/preflight"
	"sidecar/internal/services"
	"sidecar/internal/workflow"
)

func newMuxCommand(ctx *commandContext) *cobra.Command {
	muxCmd := &cobra.Command{
		Use:   "mux",
		Short: "Remux videos with mkvmerge",
	}
	muxCmd.AddCommand(newMuxAddCommand(ctx))
	muxCmd.AddCommand(newMuxPruneCommand(ctx))
	return muxCmd
}

func newMuxAddCommand(ctx *commandContext) *cobra.Command {
	var scan scanFlags
	cmd := &cobra.Command{
		Use:   "add [extension...]",
		Short: "Embed sidecar subtitles as tracks in <stem>.MUX.mkv",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMux(cmd, ctx, &scan, args, mux.OpAddTracks, nil)
		},
	}
	scan.register(cmd, true)
	return cmd
}

func newMuxPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		scan  scanFlags
		langs string
	)
	cmd := &cobra.Command{
		Use:   "prune [extension...]",
		Short: "Keep only audio and subtitle tracks in the given languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			keep, err := keepList(cfg, langs)
			if err != nil {
				return err
			}
			return runMux(cmd, ctx, &scan, args, mux.OpPruneTracks, keep)
		},
	}
	scan.register(cmd, true)
	cmd.Flags().StringVar(&langs, "lang", "", "Comma-separated languages to keep (default from mux.keep_languages)")
	return cmd
}

// keepList parses --lang, falling back to the configured keep-list. An empty
// result is rejected before any video is touched.
func keepList(cfg *config.Config, value string) ([]language.Tag, error) {
	var (
		keep []language.Tag
		err  error
	)
	if strings.TrimSpace(value) != "" {
		keep, err = language.ParseList(strings.Split(value, ",")...)
	} else {
		keep, err = cfg.KeepTags()
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "mux", "keep-list", err.Error(), nil)
	}
	if len(keep) == 0 {
		return nil, services.Wrap(services.ErrValidation, "mux", "keep-list", "no languages to keep; pass --lang", nil)
	}
	return keep, nil
}

func runMux(cmd *cobra.Command, ctx *commandContext, scan *scanFlags, args []string, op string, keep []language.Tag) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	roots := scan.roots()
	if err := checkPreflight(cfg, preflight.CommandMux, roots, scan.dryRun); err != nil {
		return err
	}

	s, runCtx, err := ctx.openSession(cmd, sessionOptions{command: "mux " + op, roots: roots, dryRun: scan.dryRun})
	if err != nil {
		return err
	}
	muxer := mux.NewMuxer(cfg.Mux.Binary, s.runner(cfg.MuxTimeout()), s.logger)
	muxer.OutputSuffix = cfg.Mux.OutputSuffix
	muxer.DryRun = scan.dryRun

	pipeline := &workflow.MuxPipeline{
		Env:                s.env(),
		Op:                 op,
		Walker:             scan.walker(cfg, args, cfg.Mux.OutputSuffix),
		SubtitleExtensions: cfg.Library.SubtitleExtensions,
		DuplicatePolicy:    cfg.Library.DuplicatePolicy,
		Keep:               keep,
		FailurePolicy:      scan.failurePolicy(cfg),
		Muxer:              muxer,
	}
	summary, runErr := pipeline.Run(runCtx, roots)
	return s.finish(runCtx, summary, runErr)
}
