package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sidecar/internal/ledger"
	"sidecar/internal/library"
	"sidecar/internal/logging"
	"sidecar/internal/metrics"
	"sidecar/internal/services"
	"sidecar/internal/subtitles"
)

// SyncPipeline aligns and promotes sidecar subtitles across a library.
type SyncPipeline struct {
	Env

	Walker             library.Walker
	SubtitleExtensions []string
	DuplicatePolicy    string
	OutputMarker       string
	FailurePolicy      string
	SkipSynced         bool
	Synchronizer       *subtitles.Synchronizer
	Promoter           subtitles.Promoter
}

// PlanEntry is one subtitle a sync run would process.
type PlanEntry struct {
	Media    string `json:"media"`
	Tag      string `json:"lang"`
	Subtitle string `json:"subtitle"`
	Output   string `json:"output"`
	Skip     bool   `json:"skip"`
}

// Run processes every video yielded by the walker. The returned error is the
// first failure (or the interrupt), nil when everything succeeded.
func (p *SyncPipeline) Run(ctx context.Context, roots []string) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: p.RunID, Command: "sync"}
	logger := logging.WithContext(ctx, p.logger("sync"))
	finish := func(err error) (Summary, error) {
		summary.Duration = time.Since(start)
		return summary, err
	}

	for media, walkErr := range p.Walker.Files(roots) {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return finish(interruptError(ctx))
		}
		if walkErr != nil {
			summary.fail("", "", "walk", walkErr)
			logger.Error("library walk failed", logging.Error(walkErr), logging.String(logging.FieldEventType, "walk_failed"))
			if p.FailurePolicy != FailureContinue {
				return finish(walkErr)
			}
			continue
		}

		summary.Videos++
		p.Metrics.Video("sync")
		err := p.processVideo(ctx, media, &summary)
		if err == nil {
			continue
		}
		if interrupted(ctx, err) {
			summary.Interrupted = true
			return finish(err)
		}
		var replaceErr *subtitles.ReplaceError
		if errors.As(err, &replaceErr) || p.FailurePolicy != FailureContinue {
			return finish(summary.Err())
		}
	}

	if err := summary.Err(); err != nil {
		logger.Warn("sync finished with failures",
			logging.Int("failed", len(summary.Failures)),
			logging.Int("promoted", summary.Promoted),
			logging.String(logging.FieldEventType, "sync_finished"),
			logging.Hint("see the aligner output above or sidecar history"),
			logging.Impact("some subtitles were left unsynchronized"),
		)
		return finish(err)
	}
	logger.Info("sync finished",
		logging.Int("videos", summary.Videos),
		logging.Int("promoted", summary.Promoted),
		logging.Int("skipped", summary.Skipped),
		logging.String(logging.FieldEventType, "sync_finished"),
	)
	return finish(nil)
}

// processVideo syncs every candidate of media in selection order. The first
// failure aborts the remaining candidates of this video.
func (p *SyncPipeline) processVideo(ctx context.Context, media library.MediaFile, summary *Summary) error {
	ctx = services.WithMediaPath(ctx, media.Path)
	logger := logging.WithContext(services.WithStage(ctx, "discover"), p.logger("sync"))

	selection, err := subtitles.Discover(media, p.SubtitleExtensions, p.DuplicatePolicy)
	if err != nil {
		summary.fail(media.Path, "", "discover", err)
		logging.ErrorWithContext(logger, "subtitle discovery failed", "discover_failed",
			logging.Error(err),
			logging.Hint("rename or remove one of the conflicting sidecars"),
		)
		p.record(ctx, logger, ledger.Entry{Kind: ledger.KindSync, Media: media.Path, Status: ledger.StatusFailed, Error: err.Error()})
		return err
	}
	if selection.Len() == 0 {
		logger.Debug("no sidecar subtitles", logging.String(logging.FieldEventType, "discover_empty"))
		return nil
	}
	logger.Info("found sidecar subtitles",
		logging.String("video", media.Base()),
		logging.Int("count", selection.Len()),
		logging.String(logging.FieldEventType, "discover_found"),
	)

	for _, candidate := range selection.Candidates() {
		summary.Subtitles++
		if err := p.processSubtitle(ctx, media, candidate, summary); err != nil {
			return err
		}
	}
	return nil
}

func (p *SyncPipeline) processSubtitle(ctx context.Context, media library.MediaFile, candidate subtitles.Candidate, summary *Summary) error {
	logger := logging.WithContext(services.WithStage(ctx, "sync"), p.logger("sync")).With(
		logging.Subtitle(candidate.Path),
		logging.Lang(candidate.Tag.String()),
	)
	entry := ledger.Entry{
		Kind:     ledger.KindSync,
		Media:    media.Path,
		Subtitle: candidate.Path,
		Language: candidate.Tag.String(),
	}

	if p.SkipSynced && p.Ledger != nil {
		done, err := p.Ledger.AlreadySynced(ctx, candidate.Path)
		if err != nil {
			logging.WarnWithContext(logger, "ledger lookup failed; syncing anyway", "ledger_lookup_failed",
				logging.Error(err),
				logging.Hint("check state_dir/ledger.db"),
				logging.Impact("subtitle may be synced twice"),
			)
		} else if done {
			summary.Skipped++
			entry.Status = ledger.StatusSkipped
			p.Metrics.Subtitle(metrics.ResultSkipped, 0)
			p.record(ctx, logger, entry)
			logger.Info("already synced; skipping", logging.String(logging.FieldEventType, "sync_skipped"))
			return nil
		}
	}

	output := subtitles.SyncedPath(candidate.Path, p.OutputMarker)
	entry.Output = output
	logger.Info("synchronizing subtitle",
		logging.String("language", candidate.Tag.DisplayName()),
		logging.String(logging.FieldEventType, "sync_started"),
	)

	outcome, err := p.Synchronizer.Synchronize(ctx, media, candidate.Path, output)
	entry.Duration = outcome.Duration
	if err != nil {
		return p.failSubtitle(ctx, logger, summary, entry, "sync", outcome.ExitCode, err)
	}

	if outcome.DryRun {
		summary.Planned++
		entry.Status = ledger.StatusDryRun
		p.Metrics.Subtitle(metrics.ResultDryRun, 0)
		p.record(ctx, logger, entry)
		logger.Info("dry run: would promote synced subtitle",
			logging.Backup(candidate.Path+p.backupSuffix()),
			logging.String(logging.FieldEventType, "promote_planned"),
		)
		return nil
	}

	state, err := p.Promoter.Promote(candidate.Path, outcome.SyncedPath)
	entry.Backup = state.Backup
	if err != nil {
		var replaceErr *subtitles.ReplaceError
		if errors.As(err, &replaceErr) && replaceErr.Stage == "promote" {
			logging.ErrorWithContext(logger, "subtitle promotion left library degraded", "promote_degraded",
				logging.Backup(replaceErr.Backup),
				logging.String("synced", replaceErr.Synced),
				logging.Error(err),
				logging.Hint("rename the synced file to the subtitle name, or restore the backup"),
				logging.Impact("subtitle missing under its canonical name"),
			)
		}
		return p.failSubtitle(ctx, logger, summary, entry, "promote", 0, err)
	}

	summary.Promoted++
	entry.Status = ledger.StatusPromoted
	p.Metrics.Subtitle(metrics.ResultPromoted, outcome.Duration)
	p.record(ctx, logger, entry)
	logger.Info("subtitle promoted",
		logging.Backup(state.Backup),
		logging.Duration("duration", outcome.Duration),
		logging.String(logging.FieldEventType, "subtitle_promoted"),
	)
	return nil
}

func (p *SyncPipeline) failSubtitle(ctx context.Context, logger *slog.Logger, summary *Summary, entry ledger.Entry, stage string, exitCode int, err error) error {
	if interrupted(ctx, err) {
		entry.Status = ledger.StatusFailed
		entry.Error = "interrupted"
		p.record(ctx, logger, entry)
		logger.Warn("interrupted; original subtitle left untouched",
			logging.String(logging.FieldEventType, "sync_interrupted"),
			logging.Hint("rerun to finish the remaining files"),
			logging.Impact("run stopped before completion"),
		)
		return err
	}
	summary.fail(entry.Media, entry.Subtitle, stage, err)
	if exitCode == 0 {
		exitCode = services.ExitCode(err)
	}
	entry.Status = ledger.StatusFailed
	entry.ExitCode = exitCode
	entry.Error = err.Error()
	p.Metrics.Subtitle(metrics.ResultFailed, entry.Duration)
	p.record(ctx, logger, entry)
	if stage == "sync" {
		logging.ErrorWithContext(logger, "subtitle sync failed; original left untouched", "sync_failed",
			logging.ExitCode(exitCode),
			logging.Error(err),
			logging.Hint("run the aligner manually on this file to see its diagnostics"),
		)
	}
	return err
}

func (p *SyncPipeline) backupSuffix() string {
	if p.Promoter.BackupSuffix != "" {
		return p.Promoter.BackupSuffix
	}
	return subtitles.DefaultBackupSuffix
}

// Plan lists the subtitles a run would process without invoking anything.
func (p *SyncPipeline) Plan(ctx context.Context, roots []string) ([]PlanEntry, error) {
	var plan []PlanEntry
	for media, err := range p.Walker.Files(roots) {
		if ctx.Err() != nil {
			return plan, interruptError(ctx)
		}
		if err != nil {
			return plan, err
		}
		selection, err := subtitles.Discover(media, p.SubtitleExtensions, p.DuplicatePolicy)
		if err != nil {
			return plan, err
		}
		for tag, path := range selection.All() {
			entry := PlanEntry{
				Media:    media.Path,
				Tag:      tag.String(),
				Subtitle: path,
				Output:   subtitles.SyncedPath(path, p.OutputMarker),
			}
			if p.SkipSynced && p.Ledger != nil {
				if done, lookupErr := p.Ledger.AlreadySynced(ctx, path); lookupErr == nil {
					entry.Skip = done
				}
			}
			plan = append(plan, entry)
		}
	}
	return plan, nil
}
