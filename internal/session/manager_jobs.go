package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hardsub/internal/chat"
	"hardsub/internal/logging"
	"hardsub/internal/progress"
	"hardsub/internal/transcode"
)

// reportTimeout bounds the terminal message and observer calls, which still
// run when the job itself was cancelled by shutdown.
const reportTimeout = 30 * time.Second

// beginJob registers a job unless the manager is closing.
func (m *Manager) beginJob() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.jobWG.Add(1)
	m.running.Add(1)
	m.jobsStarted.Add(1)
	return true
}

// runJob executes spec on the calling goroutine, reports the outcome to the
// user and observers, and hands control back to the session.
func (m *Manager) runJob(spec transcode.Spec, status chat.MessageRef, logger *slog.Logger) {
	defer m.jobWG.Done()
	ctx := logging.WithJobID(logging.WithSessionID(m.jobCtx, spec.SessionID), spec.JobID)

	rep := &jobReporter{
		status: newStatusMessage(m.transport, spec.SessionID, status),
		video:  spec.DisplayName(),
		logger: logger,
	}
	result := m.runner.Run(ctx, spec, rep)
	m.running.Add(-1)
	if result.Succeeded() {
		m.jobsSucceeded.Add(1)
	} else {
		m.jobsFailed.Add(1)
	}

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()
	rep.finish(reportCtx, result)
	logOutcome(logger, result)
	for _, obs := range m.observers {
		obs.JobFinished(reportCtx, result)
	}

	if err := m.deliver(reportCtx, spec.SessionID, JobFinished{Result: result}); err != nil {
		logger.Debug("job completion not delivered to session", logging.Error(err))
	}
}

// jobReporter relays supervisor callbacks to the session's status message.
// It is used only from the job's goroutine.
type jobReporter struct {
	status *statusMessage
	video  string
	logger *slog.Logger
}

func (r *jobReporter) Progress(ctx context.Context, evt progress.Event) {
	if err := r.status.Show(ctx, progressMessage(evt), false); err != nil {
		r.logger.Debug("progress update failed", logging.Error(err), logging.Int(logging.FieldProgressPercent, evt.Percent))
	}
}

func (r *jobReporter) ProbeDegraded(ctx context.Context, _ error) {
	if _, err := r.status.transport.SendMessage(ctx, r.status.sessionID, chat.Text(textProbeDegraded)); err != nil {
		r.logger.Debug("probe notice failed", logging.Error(err))
	}
}

func (r *jobReporter) Deliver(ctx context.Context, path string) error {
	if err := r.status.Show(ctx, chat.Text(textEncodeComplete), true); err != nil {
		r.logger.Debug("completion notice failed", logging.Error(err))
	}
	doc := chat.Document{
		Path:    path,
		Name:    transcode.DeliveredName(r.video),
		Caption: textDeliveredCaption,
	}
	if err := r.status.transport.SendDocument(ctx, r.status.sessionID, doc); err != nil {
		return err
	}
	r.logger.Info("output delivered",
		logging.String(logging.FieldEventType, "output_delivered"),
		logging.String("name", doc.Name),
	)
	return nil
}

// finish shows the terminal outcome. Process and precondition failures
// replace the status message; other failures and the final notice are sent
// as new messages.
func (r *jobReporter) finish(ctx context.Context, result transcode.Result) {
	var err error
	switch result.Outcome {
	case transcode.OutcomeSuccess:
		_, err = r.status.transport.SendMessage(ctx, r.status.sessionID, chat.Text(textDone))
	case transcode.OutcomeProcess, transcode.OutcomePrecondition:
		msg, _ := outcomeMessage(result)
		err = r.status.Show(ctx, msg, true)
	default:
		msg, _ := outcomeMessage(result)
		_, err = r.status.transport.SendMessage(ctx, r.status.sessionID, msg)
	}
	if err != nil && !errors.Is(err, chat.ErrNotModified) {
		logging.WarnWithContext(r.logger, "job outcome not shown to user", "transport_error",
			logging.Error(err),
			logging.String("outcome", result.Outcome.String()),
			logging.String(logging.FieldErrorHint, "check network access to the chat API"),
			logging.String(logging.FieldImpact, "the user did not see the job result"),
		)
	}
}
