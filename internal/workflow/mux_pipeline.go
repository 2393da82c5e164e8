package workflow

import (
	"context"
	"fmt"
	"time"

	"sidecar/internal/language"
	"sidecar/internal/ledger"
	"sidecar/internal/library"
	"sidecar/internal/logging"
	"sidecar/internal/metrics"
	"sidecar/internal/mux"
	"sidecar/internal/services"
	"sidecar/internal/subtitles"
)

// MuxPipeline remuxes every video of a library with mkvmerge, either adding
// its sidecar subtitles or pruning tracks to a language keep-list.
type MuxPipeline struct {
	Env

	Op                 string
	Walker             library.Walker
	SubtitleExtensions []string
	DuplicatePolicy    string
	Keep               []language.Tag
	FailurePolicy      string
	Muxer              *mux.Muxer
}

// Run remuxes each video in walk order.
func (p *MuxPipeline) Run(ctx context.Context, roots []string) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: p.RunID, Command: "mux " + p.Op}
	logger := logging.WithContext(ctx, p.logger("mux"))
	finish := func(err error) (Summary, error) {
		summary.Duration = time.Since(start)
		return summary, err
	}

	switch p.Op {
	case mux.OpAddTracks, mux.OpPruneTracks:
	default:
		return finish(services.Wrap(services.ErrValidation, "mux", "run", fmt.Sprintf("unknown operation %q", p.Op), nil))
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
		p.Metrics.Video(summary.Command)
		err := p.processVideo(ctx, media, &summary)
		if err == nil {
			continue
		}
		if interrupted(ctx, err) {
			summary.Interrupted = true
			return finish(err)
		}
		if p.FailurePolicy != FailureContinue {
			return finish(summary.Err())
		}
	}

	if err := summary.Err(); err != nil {
		logger.Warn("mux finished with failures",
			logging.Int("failed", len(summary.Failures)),
			logging.Int("muxed", summary.Muxed),
			logging.String(logging.FieldEventType, "mux_finished"),
			logging.Hint("see the mkvmerge output above or sidecar history"),
			logging.Impact("some videos were not remuxed"),
		)
		return finish(err)
	}
	logger.Info("mux finished",
		logging.String("op", p.Op),
		logging.Int("videos", summary.Videos),
		logging.Int("muxed", summary.Muxed),
		logging.Int("skipped", summary.Skipped),
		logging.String(logging.FieldEventType, "mux_finished"),
	)
	return finish(nil)
}

func (p *MuxPipeline) processVideo(ctx context.Context, media library.MediaFile, summary *Summary) error {
	ctx = services.WithStage(services.WithMediaPath(ctx, media.Path), "mux")
	logger := logging.WithContext(ctx, p.logger("mux"))
	entry := ledger.Entry{Kind: ledger.KindMuxPrune, Media: media.Path}

	var (
		result mux.Result
		err    error
	)
	switch p.Op {
	case mux.OpAddTracks:
		entry.Kind = ledger.KindMuxAdd
		var selection subtitles.Selection
		selection, err = subtitles.Discover(media, p.SubtitleExtensions, p.DuplicatePolicy)
		if err != nil {
			return p.failVideo(ctx, summary, entry, "discover", err)
		}
		if selection.Len() == 0 {
			summary.Skipped++
			p.Metrics.Mux(p.Op, metrics.ResultSkipped, 0)
			logger.Info("no sidecar subtitles; skipping", logging.String(logging.FieldEventType, "mux_skipped"))
			return nil
		}
		summary.Subtitles += selection.Len()
		entry.Language = language.Join(selection.Tags())
		result, err = p.Muxer.AddTracks(ctx, media, selection)
	case mux.OpPruneTracks:
		entry.Language = language.Join(p.Keep)
		result, err = p.Muxer.PruneTracks(ctx, media, p.Keep)
	}
	entry.Output = result.Output
	entry.Duration = result.Duration
	if err != nil {
		return p.failVideo(ctx, summary, entry, "mux", err)
	}

	if result.DryRun {
		summary.Planned++
		entry.Status = ledger.StatusDryRun
		p.Metrics.Mux(p.Op, metrics.ResultDryRun, 0)
	} else {
		summary.Muxed++
		entry.Status = ledger.StatusMuxed
		p.Metrics.Mux(p.Op, metrics.ResultMuxed, result.Duration)
	}
	p.record(ctx, logger, entry)
	return nil
}

func (p *MuxPipeline) failVideo(ctx context.Context, summary *Summary, entry ledger.Entry, stage string, err error) error {
	logger := logging.WithContext(ctx, p.logger("mux"))
	entry.Status = ledger.StatusFailed
	entry.Error = err.Error()
	if interrupted(ctx, err) {
		entry.Error = "interrupted"
		p.record(ctx, logger, entry)
		return err
	}
	summary.fail(entry.Media, "", stage, err)
	entry.ExitCode = services.ExitCode(err)
	p.Metrics.Mux(p.Op, metrics.ResultFailed, entry.Duration)
	p.record(ctx, logger, entry)
	logging.ErrorWithContext(logger, "remux failed; source left untouched", "mux_failed",
		logging.String("op", p.Op),
		logging.Error(err),
		logging.Hint("see the mkvmerge diagnostics above"),
	)
	return err
}
