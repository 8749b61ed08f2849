package notifications

import (
	"context"
	"log/slog"

	"hardsub/internal/config"
	"hardsub/internal/logging"
	"hardsub/internal/transcode"
)

// Observer forwards finished jobs to a Service, honouring the per-outcome
// switches from the [notifications] section.
type Observer struct {
	svc       Service
	completed bool
	failed    bool
	logger    *slog.Logger
}

// NewObserver builds an observer for svc. Failures to notify are logged and
// never reach the chat flow.
func NewObserver(svc Service, cfg config.Notifications, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Observer{
		svc:       svc,
		completed: cfg.JobCompleted,
		failed:    cfg.JobFailed,
		logger:    logging.NewComponentLogger(logger, "notifications"),
	}
}

// JobFinished publishes result when its outcome is enabled.
func (o *Observer) JobFinished(ctx context.Context, result transcode.Result) {
	if o == nil || o.svc == nil {
		return
	}
	var err error
	switch {
	case result.Succeeded() && o.completed:
		err = o.svc.NotifyJobCompleted(ctx, result)
	case !result.Succeeded() && o.failed:
		err = o.svc.NotifyJobFailed(ctx, result)
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(o.logger, "job notification failed", "notification_failed",
			logging.String(logging.FieldJobID, result.JobID),
			logging.String("outcome", result.Outcome.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network reachability"),
			logging.String(logging.FieldImpact, "operator was not notified; the user already got the result"),
		)
	}
}
