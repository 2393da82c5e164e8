package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sidecar/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		filter     ledger.Filter
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sync and remux outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Store) error {
				entries, err := store.Entries(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					if entries == nil {
						entries = []ledger.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No history recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"When", "Kind", "Status", "Lang", "Target", "Exit"},
					entryRows(entries),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only entries from this run ID")
	cmd.Flags().StringVar(&filter.Media, "media", "", "Only entries for this video path")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only entries with this status (promoted, muxed, failed, skipped, dry_run)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")

	cmd.AddCommand(newHistoryRunsCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Store) error {
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.ID,
						r.Command,
						formatTime(r.StartedAt),
						r.Status,
						yesNo(r.DryRun),
						strconv.Itoa(r.Processed),
						strconv.Itoa(r.Failed),
						strconv.Itoa(r.ExitCode),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Command", "Started", "Status", "Dry run", "Videos", "Failed", "Exit"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum runs to show (0 for all)")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than the given number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must be >= 0")
			}
			return withLedger(ctx, func(store *ledger.Store) error {
				cutoff := time.Now().AddDate(0, 0, -days)
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs started before %s\n", removed, cutoff.Format("2006-01-02"))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "Keep runs from the last N days")
	return cmd
}

func withLedger(ctx *commandContext, fn func(*ledger.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func entryRows(entries []ledger.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		target := e.Subtitle
		if target == "" {
			target = e.Media
		}
		if e.Error != "" {
			target += "\n" + truncate(e.Error, 80)
		}
		rows = append(rows, []string{
			formatTime(e.CreatedAt),
			e.Kind,
			e.Status,
			e.Language,
			target,
			strconv.Itoa(e.ExitCode),
		})
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
