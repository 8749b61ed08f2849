package history

import (
	"context"
	"log/slog"

	"hardsub/internal/logging"
	"hardsub/internal/transcode"
)

// Recorder writes finished jobs to a Store and keeps at most Keep rows.
type Recorder struct {
	store  *Store
	keep   int
	logger *slog.Logger
}

// NewRecorder wraps store. keep bounds the ledger size; zero keeps everything.
func NewRecorder(store *Store, keep int, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, keep: keep, logger: logging.NewComponentLogger(logger, "history")}
}

// JobFinished records result. Failures are logged; the ledger never affects
// the job's outcome.
func (r *Recorder) JobFinished(ctx context.Context, result transcode.Result) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Insert(ctx, FromResult(result)); err != nil {
		logging.WarnWithContext(r.logger, "job history write failed", "history_write_failed",
			logging.String(logging.FieldJobID, result.JobID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions and free space"),
			logging.String(logging.FieldImpact, "this job is missing from the history ledger"),
		)
		return
	}
	if pruned, err := r.store.Prune(ctx, r.keep); err != nil {
		r.logger.Warn("job history prune failed", logging.Error(err))
	} else if pruned > 0 {
		r.logger.Debug("job history pruned", logging.Int64("rows", pruned))
	}
}
