package session

import (
	"context"
	"fmt"
	"log/slog"

	"hardsub/internal/assets"
	"hardsub/internal/chat"
	"hardsub/internal/faults"
	"hardsub/internal/logging"
	"hardsub/internal/settings"
	"hardsub/internal/transcode"
)

func (w *worker) handle(ctx context.Context, evt Event) {
	switch e := evt.(type) {
	case HelpCommand:
		w.send(ctx, chat.Text(helpText(e.Name)))
	case StartCommand:
		w.onStartCommand(ctx)
	case CancelCommand:
		w.onCancelCommand(ctx)
	case FileReceived:
		w.onFile(ctx, e.File)
	case ButtonPressed:
		w.onButton(ctx, e)
	case JobFinished:
		w.onJobFinished(e.Result)
	default:
		w.ignored(evt)
	}
}

func (w *worker) ignored(evt Event) {
	w.logger.Debug("event ignored in current state",
		logging.String("event", fmt.Sprintf("%T", evt)),
		logging.String("state", w.session.state.String()),
	)
}

func (w *worker) onStartCommand(ctx context.Context) {
	switch w.session.state {
	case StateIdle:
		w.session.reset()
		w.session.state = StateAwaitingVideo
		w.logger.Info("session started", logging.String(logging.FieldEventType, "session_started"))
		w.send(ctx, chat.Text(textStartPrompt))
	case StateJobRunning:
		w.send(ctx, chat.Text(textBusy))
	default:
		w.send(ctx, chat.Text(textAlreadyInProgress))
	}
}

func (w *worker) onCancelCommand(ctx context.Context) {
	if w.session.state == StateJobRunning {
		w.send(ctx, chat.Text(textJobNotCancellable))
		return
	}
	w.cancelSession(ctx, chat.MessageRef{})
}

func (w *worker) cancelSession(ctx context.Context, target chat.MessageRef) {
	w.logger.Info("session cancelled",
		logging.String(logging.FieldEventType, "session_cancelled"),
		logging.String("state", w.session.state.String()),
	)
	w.abort(ctx, target, textCancelled)
}

func (w *worker) onFile(ctx context.Context, file chat.File) {
	switch w.session.state {
	case StateAwaitingVideo:
		w.receiveVideo(ctx, file)
	case StateAwaitingSubtitle:
		w.receiveSubtitle(ctx, file)
	default:
		w.ignored(FileReceived{File: file})
	}
}

func (w *worker) receiveVideo(ctx context.Context, file chat.File) {
	if !assets.IsVideo(file.Kind, file.MIME) {
		w.logger.Info("video rejected",
			logging.String(logging.FieldEventType, "input_rejected"),
			logging.String("file_name", file.Name),
			logging.String("mime", file.MIME),
		)
		w.send(ctx, chat.Text(textNotVideo))
		return
	}

	status := w.send(ctx, chat.Text(downloadingVideoText(file)))
	dir, err := w.manager.store.Prepare(w.session.id)
	if err != nil {
		err = faults.Wrap(faults.ErrUnexpected, "session", "prepare scratch", "", err)
		w.downloadFailed("video", err)
		w.show(ctx, status, chat.Text(videoDownloadFailedText(err)))
		w.abort(ctx, chat.MessageRef{}, textCancelled)
		return
	}
	path, err := w.download(ctx, dir, assets.RoleVideo, file)
	if err != nil {
		w.downloadFailed("video", err)
		w.show(ctx, status, chat.Text(videoDownloadFailedText(err)))
		w.abort(ctx, chat.MessageRef{}, textCancelled)
		return
	}

	w.session.assets = assets.Set{Dir: dir, VideoPath: path, VideoName: videoName(file)}
	w.session.state = StateAwaitingSubtitle
	w.logger.Info("video stored",
		logging.String(logging.FieldEventType, "video_received"),
		logging.String("path", path),
		logging.Int64("size_bytes", file.Size),
	)
	w.show(ctx, status, chat.Text(textVideoReceived))
}

func (w *worker) receiveSubtitle(ctx context.Context, file chat.File) {
	if file.Kind != assets.KindDocument || !assets.IsSubtitle(file.Name) {
		w.logger.Info("subtitle rejected",
			logging.String(logging.FieldEventType, "input_rejected"),
			logging.String("file_name", file.Name),
		)
		w.send(ctx, chat.Text(textNotSubtitle))
		return
	}

	status := w.send(ctx, chat.Text(textDownloadSubtitle))
	path, err := w.download(ctx, w.session.assets.Dir, assets.RoleSubtitle, file)
	if err != nil {
		w.downloadFailed("subtitle", err)
		w.show(ctx, status, chat.Text(subtitleDownloadFailedText(err)))
		return
	}

	w.session.assets.SubtitlePath = path
	w.session.state = StateConfiguringOptions
	w.session.submenu = ""
	w.logger.Info("subtitle stored",
		logging.String(logging.FieldEventType, "subtitle_received"),
		logging.String("path", path),
	)
	w.show(ctx, status, chat.Message{Text: textFilesReceived, Keyboard: mainMenu(w.session.settings)})
}

// download streams file into dir. Failures are transfer faults.
func (w *worker) download(ctx context.Context, dir string, role assets.Role, file chat.File) (string, error) {
	if file.Open == nil {
		return "", faults.Wrap(faults.ErrTransfer, "session", "download", "file has no source", nil)
	}
	src, err := file.Open(ctx)
	if err != nil {
		return "", faults.Wrap(faults.ErrTransfer, "session", "download", "", err)
	}
	defer src.Close()
	path, err := w.manager.store.Save(dir, role, file.Name, src)
	if err != nil {
		return "", faults.Wrap(faults.ErrTransfer, "session", "download", "", err)
	}
	return path, nil
}

func (w *worker) downloadFailed(what string, err error) {
	logging.WarnWithContext(w.logger, what+" download failed", "download_failed",
		logging.Error(err),
		logging.String("category", faults.Category(err)),
		logging.Bool("retryable", faults.Retryable(err)),
		logging.String(logging.FieldErrorHint, "check telegram.download_timeout and scratch_dir space"),
		logging.String(logging.FieldImpact, "the user was asked to send the file again"),
	)
}

func (w *worker) onButton(ctx context.Context, evt ButtonPressed) {
	switch w.session.state {
	case StateJobRunning:
		w.ack(ctx, evt.AckID, textBusy)
		return
	case StateConfiguringOptions:
	default:
		w.ack(ctx, evt.AckID, "")
		w.ignored(evt)
		return
	}

	switch action := evt.Action.(type) {
	case chat.ChangeOption:
		keyboard, err := submenu(action.Key)
		if err != nil {
			w.ack(ctx, evt.AckID, "")
			w.ignored(evt)
			return
		}
		w.ack(ctx, evt.AckID, "")
		w.session.submenu = action.Key
		w.show(ctx, evt.Message, chat.Message{Text: submenuPrompt(action.Key), Keyboard: keyboard})
	case chat.SetValue:
		w.setValue(ctx, evt, action)
	case chat.Back:
		w.ack(ctx, evt.AckID, "")
		if w.session.submenu == "" {
			w.ignored(evt)
			return
		}
		w.session.submenu = ""
		w.show(ctx, evt.Message, chat.Message{Text: textCurrentSettings, Keyboard: mainMenu(w.session.settings)})
	case chat.StartJob:
		w.ack(ctx, evt.AckID, "")
		if !w.session.assets.Ready() {
			w.ignored(evt)
			return
		}
		w.startJob(ctx, evt.Message)
	case chat.Cancel:
		w.ack(ctx, evt.AckID, "")
		w.cancelSession(ctx, evt.Message)
	default:
		w.ack(ctx, evt.AckID, "")
		w.ignored(evt)
	}
}

func (w *worker) setValue(ctx context.Context, evt ButtonPressed, action chat.SetValue) {
	if w.session.submenu == "" || action.Key != w.session.submenu {
		w.ack(ctx, evt.AckID, "")
		w.ignored(evt)
		return
	}
	next, err := settings.Apply(w.session.settings, action.Key, action.Value)
	if err != nil {
		w.ack(ctx, evt.AckID, "That choice is not available.")
		w.logger.Warn("option value rejected",
			logging.String("key", string(action.Key)),
			logging.String("value", action.Value),
			logging.Error(err),
			logging.String(logging.FieldEventType, "option_rejected"),
		)
		return
	}
	w.ack(ctx, evt.AckID, "")
	w.session.settings = next
	w.session.submenu = ""
	w.logger.Debug("option updated",
		logging.String("key", string(action.Key)),
		logging.String("value", action.Value),
	)
	w.show(ctx, evt.Message, chat.Message{Text: textSettingUpdated, Keyboard: mainMenu(next)})
}

func (w *worker) startJob(ctx context.Context, menu chat.MessageRef) {
	m := w.manager
	spec := transcode.Spec{
		JobID:        m.newJobID(),
		SessionID:    w.session.id,
		Dir:          w.session.assets.Dir,
		VideoPath:    w.session.assets.VideoPath,
		VideoName:    w.session.assets.VideoName,
		SubtitlePath: w.session.assets.SubtitlePath,
		Settings:     w.session.settings,
	}
	if !m.beginJob() {
		w.abort(ctx, menu, "The bot is shutting down. Please try again later.")
		return
	}

	w.session.state = StateJobRunning
	w.session.submenu = ""
	w.session.jobID = spec.JobID
	status := w.show(ctx, menu, chat.Text(textStarting))

	logger := w.logger.With(logging.String(logging.FieldJobID, spec.JobID))
	logger.Info("job launched",
		logging.String(logging.FieldEventType, "job_launched"),
		logging.String("resolution", spec.Settings.Resolution),
		logging.String("codec", spec.Settings.Codec),
		logging.String("preset", spec.Settings.Preset),
		logging.String("crf", spec.Settings.CRF),
	)
	go m.runJob(spec, status, logger)
}

func (w *worker) onJobFinished(result transcode.Result) {
	if w.session.state != StateJobRunning || result.JobID != w.session.jobID {
		w.ignored(JobFinished{Result: result})
		return
	}
	w.session.reset()
	w.logger.Debug("session returned to idle",
		logging.String(logging.FieldJobID, result.JobID),
		logging.String("outcome", result.Outcome.String()),
	)
}

// logOutcome is shared by job goroutines for the session-level summary.
func logOutcome(logger *slog.Logger, result transcode.Result) {
	logger.Info("job reported",
		logging.String(logging.FieldEventType, "job_reported"),
		logging.String("outcome", result.Outcome.String()),
		logging.String("category", faults.Category(result.Err)),
	)
}
