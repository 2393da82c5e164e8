package workflow

import (
	"context"
	"log/slog"

	"sidecar/internal/ledger"
	"sidecar/internal/logging"
	"sidecar/internal/metrics"
)

// Ledger is the subset of the ledger store the pipelines use.
type Ledger interface {
	Record(ctx context.Context, entry ledger.Entry) error
	AlreadySynced(ctx context.Context, subtitle string) (bool, error)
}

// Env carries the collaborators shared by both pipelines.
type Env struct {
	RunID   string
	Logger  *slog.Logger
	Ledger  Ledger
	Metrics *metrics.Recorder
	DryRun  bool
}

func (e Env) logger(component string) *slog.Logger {
	return logging.NewComponentLogger(e.Logger, component)
}

func (e Env) record(ctx context.Context, logger *slog.Logger, entry ledger.Entry) {
	if e.Ledger == nil {
		return
	}
	entry.RunID = e.RunID
	// Outcomes are still written after an interrupt.
	if err := e.Ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
			logging.String("media", entry.Media),
			logging.Error(err),
			logging.Hint("check state_dir permissions and disk space"),
			logging.Impact("history incomplete for this run"),
		)
	}
}
