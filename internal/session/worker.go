package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"hardsub/internal/chat"
	"hardsub/internal/logging"
)

type envelope struct {
	event Event
	query chan<- Snapshot
}

// worker owns one session and handles its events sequentially.
type worker struct {
	manager *Manager
	inbox   chan envelope
	session *session
	logger  *slog.Logger

	// pending counts envelopes dispatched but not yet handled. Guarded by
	// manager.mu.
	pending int
}

func (w *worker) loop() {
	defer w.manager.workerWG.Done()
	idle := w.manager.idleTimeout
	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		select {
		case env := <-w.inbox:
			if env.query != nil {
				env.query <- w.session.snapshot()
				w.manager.release(w)
				continue
			}
			w.handleSafely(env.event)
			w.manager.release(w)
			timer.Reset(idle)
		case <-timer.C:
			if w.session.state == StateJobRunning {
				timer.Reset(idle)
				continue
			}
			if w.session.state != StateIdle {
				w.expire()
			}
			if w.manager.retire(w) {
				w.logger.Debug("session worker retired")
				return
			}
			timer.Reset(idle)
		case <-w.manager.quit:
			return
		}
	}
}

func (w *worker) eventContext() context.Context {
	ctx := logging.WithSessionID(w.manager.ctx, w.session.id)
	if w.session.jobID != "" {
		ctx = logging.WithJobID(ctx, w.session.jobID)
	}
	return ctx
}

// handleSafely runs one transition. A panic abandons the session rather than
// the worker, unless a job is running, in which case the job still owns the
// session directory.
func (w *worker) handleSafely(evt Event) {
	ctx := w.eventContext()
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(w.logger, "session event handler panicked", "session_panic",
				logging.String("event", fmt.Sprintf("%T", evt)),
				logging.String("state", w.session.state.String()),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
			)
			if w.session.state != StateJobRunning {
				w.abort(ctx, chat.MessageRef{}, "An unexpected error occurred. Send /mux to start again.")
			}
		}
	}()
	w.handle(ctx, evt)
}

// expire abandons a session nobody has touched for the idle timeout.
func (w *worker) expire() {
	ctx := w.eventContext()
	w.logger.Info("session expired",
		logging.String(logging.FieldEventType, "session_expired"),
		logging.String("state", w.session.state.String()),
	)
	w.abort(ctx, chat.MessageRef{}, textExpired)
}

// abort tears down the session directory, returns to Idle and shows text,
// editing target when it is set.
func (w *worker) abort(ctx context.Context, target chat.MessageRef, text string) {
	w.manager.store.Teardown(w.manager.store.Dir(w.session.id))
	w.session.reset()
	w.show(ctx, target, chat.Text(text))
}

func (w *worker) send(ctx context.Context, msg chat.Message) chat.MessageRef {
	ref, err := w.manager.transport.SendMessage(ctx, w.session.id, msg)
	if err != nil {
		w.transportWarning("send message failed", err)
	}
	return ref
}

// show edits target (or sends a new message when target is unset) and returns
// the reference of the message now displaying msg.
func (w *worker) show(ctx context.Context, target chat.MessageRef, msg chat.Message) chat.MessageRef {
	status := newStatusMessage(w.manager.transport, w.session.id, target)
	if err := status.Show(ctx, msg, true); err != nil {
		w.transportWarning("status update failed", err)
	}
	return status.ref
}

func (w *worker) ack(ctx context.Context, ackID, text string) {
	if ackID == "" {
		return
	}
	if err := w.manager.transport.Acknowledge(ctx, ackID, text); err != nil {
		w.logger.Debug("button acknowledgement failed", logging.Error(err))
	}
}

func (w *worker) transportWarning(msg string, err error) {
	logging.WarnWithContext(w.logger, msg, "transport_error",
		logging.Error(err),
		logging.String("state", w.session.state.String()),
		logging.String(logging.FieldErrorHint, "check network access to the chat API"),
		logging.String(logging.FieldImpact, "the user may not see this update"),
	)
}
