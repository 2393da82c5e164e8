package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sidecar/internal/ledger"
	"sidecar/internal/preflight"
	"sidecar/internal/subtitles"
	"sidecar/internal/workflow"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		scan       scanFlags
		plan       bool
		jsonOutput bool
		skipSynced bool
	)

	cmd := &cobra.Command{
		Use:   "sync [extension...]",
		Short: "Align sidecar subtitles to their videos and promote the results",
		Long: `Finds <video-stem>.<lang>.<ext> subtitles next to every video, runs the
aligner on each one, keeps the original as <subtitle>.old, and moves the
synced file into place. Positional arguments replace the video extensions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			roots := scan.roots()

			if plan {
				return runSyncPlan(cmd, ctx, &scan, args, skipSynced || cfg.Sync.SkipSynced, jsonOutput)
			}
			if err := checkPreflight(cfg, preflight.CommandSync, roots, scan.dryRun); err != nil {
				return err
			}

			s, runCtx, err := ctx.openSession(cmd, sessionOptions{command: "sync", roots: roots, dryRun: scan.dryRun})
			if err != nil {
				return err
			}
			pipeline := &workflow.SyncPipeline{
				Env:                s.env(),
				Walker:             scan.walker(cfg, args, cfg.Mux.OutputSuffix),
				SubtitleExtensions: cfg.Library.SubtitleExtensions,
				DuplicatePolicy:    cfg.Library.DuplicatePolicy,
				OutputMarker:       cfg.Sync.OutputMarker,
				FailurePolicy:      scan.failurePolicy(cfg),
				SkipSynced:         skipSynced || cfg.Sync.SkipSynced,
				Synchronizer:       subtitles.NewSynchronizer(cfg.Sync.Binary, s.runner(cfg.SyncTimeout()), s.logger),
				Promoter:           subtitles.Promoter{BackupSuffix: cfg.Sync.BackupSuffix},
			}
			pipeline.Synchronizer.DryRun = scan.dryRun

			summary, runErr := pipeline.Run(runCtx, roots)
			return s.finish(runCtx, summary, runErr)
		},
	}

	scan.register(cmd, true)
	cmd.Flags().BoolVar(&plan, "plan", false, "List the subtitles that would be synced and exit")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "With --plan, print JSON instead of a table")
	cmd.Flags().BoolVar(&skipSynced, "skip-synced", false, "Skip subtitles promoted by an earlier run and unchanged since")
	return cmd
}

func runSyncPlan(cmd *cobra.Command, ctx *commandContext, scan *scanFlags, args []string, skipSynced, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	s, runCtx, err := ctx.openSession(cmd, sessionOptions{command: "sync", roots: scan.roots(), readOnly: true})
	if err != nil {
		return err
	}
	defer s.release()

	pipeline := &workflow.SyncPipeline{
		Env:                s.env(),
		Walker:             scan.walker(cfg, args, cfg.Mux.OutputSuffix),
		SubtitleExtensions: cfg.Library.SubtitleExtensions,
		DuplicatePolicy:    cfg.Library.DuplicatePolicy,
		OutputMarker:       cfg.Sync.OutputMarker,
		SkipSynced:         skipSynced,
	}
	if skipSynced {
		store, err := ledger.Open(cfg.LedgerPath())
		if err != nil {
			return err
		}
		defer store.Close()
		pipeline.Ledger = store
	}

	entries, err := pipeline.Plan(runCtx, scan.roots())
	if err != nil {
		return err
	}
	if jsonOutput {
		if entries == nil {
			entries = []workflow.PlanEntry{}
		}
		return writeJSON(cmd, entries)
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No sidecar subtitles found")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Media, e.Tag, e.Subtitle, e.Output, yesNo(e.Skip)})
	}
	fmt.Fprintln(out, renderTable([]string{"Video", "Lang", "Subtitle", "Synced output", "Skip"}, rows, nil))
	return nil
}
