package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hardsub/internal/assets"
	"hardsub/internal/chat"
	"hardsub/internal/faults"
	"hardsub/internal/logging"
	"hardsub/internal/session"
)

// Dispatcher receives translated session events. *session.Manager satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID string, evt session.Event) error
}

// Poll long-polls for updates and dispatches them until ctx is cancelled.
func (b *Bot) Poll(ctx context.Context, dispatcher Dispatcher) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(b.opts.PollTimeout.Seconds())
	cfg.AllowedUpdates = []string{"message", "callback_query"}
	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Info("polling for updates",
		logging.String(logging.FieldEventType, "polling_started"),
		logging.Duration("poll_timeout", b.opts.PollTimeout),
	)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("polling stopped", logging.String(logging.FieldEventType, "polling_stopped"))
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			b.route(ctx, dispatcher, update)
		}
	}
}

func (b *Bot) route(ctx context.Context, dispatcher Dispatcher, update tgbotapi.Update) {
	sessionID, evt, ok := b.Translate(update)
	if !ok {
		if cq := update.CallbackQuery; cq != nil {
			if err := b.Acknowledge(ctx, cq.ID, ""); err != nil {
				b.logger.Debug("stale button acknowledgement failed", logging.Error(err))
			}
		}
		b.logger.Debug("update ignored", logging.Int("update_id", update.UpdateID))
		return
	}
	// The manager logs dropped events itself.
	if err := dispatcher.Dispatch(ctx, sessionID, evt); err != nil && ctx.Err() == nil && !errors.Is(err, session.ErrSessionBusy) {
		logging.WarnWithContext(b.logger, "update not dispatched", "dispatch_failed",
			logging.String(logging.FieldSessionID, sessionID),
			logging.String("event", fmt.Sprintf("%T", evt)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the user's action was dropped"),
		)
	}
}

// Translate converts an update into a session event. The boolean is false for
// updates the bot does not act on.
func (b *Bot) Translate(update tgbotapi.Update) (string, session.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		return b.translateCallback(cq)
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return "", nil, false
	}
	sessionID := SessionID(msg.Chat.ID)

	if msg.IsCommand() {
		switch strings.ToLower(msg.Command()) {
		case "mux":
			return sessionID, session.StartCommand{}, true
		case "cancel":
			return sessionID, session.CancelCommand{}, true
		case "start", "help":
			name := ""
			if msg.From != nil {
				name = msg.From.FirstName
			}
			return sessionID, session.HelpCommand{Name: name}, true
		default:
			return "", nil, false
		}
	}

	switch {
	case msg.Video != nil:
		v := msg.Video
		return sessionID, session.FileReceived{File: chat.File{
			Kind:     assets.KindVideo,
			Name:     v.FileName,
			MIME:     v.MimeType,
			Size:     int64(v.FileSize),
			UniqueID: v.FileUniqueID,
			Open:     b.opener(v.FileID),
		}}, true
	case msg.Document != nil:
		d := msg.Document
		return sessionID, session.FileReceived{File: chat.File{
			Kind:     assets.KindDocument,
			Name:     d.FileName,
			MIME:     d.MimeType,
			Size:     int64(d.FileSize),
			UniqueID: d.FileUniqueID,
			Open:     b.opener(d.FileID),
		}}, true
	}
	return "", nil, false
}

func (b *Bot) translateCallback(cq *tgbotapi.CallbackQuery) (string, session.Event, bool) {
	if cq.Message == nil || cq.Message.Chat == nil {
		return "", nil, false
	}
	action, err := chat.ParseAction(cq.Data)
	if err != nil {
		b.logger.Debug("unrecognized button payload", logging.String("data", cq.Data))
		return "", nil, false
	}
	sessionID := SessionID(cq.Message.Chat.ID)
	return sessionID, session.ButtonPressed{
		Action:  action,
		AckID:   cq.ID,
		Message: chat.MessageRef{SessionID: sessionID, MessageID: cq.Message.MessageID},
	}, true
}

// opener returns a download function for fileID bounded by the download
// timeout.
func (b *Bot) opener(fileID string) func(context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return b.Download(ctx, fileID)
	}
}

// Download resolves fileID and streams its content. The caller closes the
// returned reader.
func (b *Bot) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.DownloadTimeout)
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		cancel()
		return nil, faults.Wrap(faults.ErrTransfer, "telegram", "get file", "", err)
	}
	url := fmt.Sprintf(b.opts.FileEndpoint, b.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := b.download.Do(req)
	if err != nil {
		cancel()
		return nil, faults.Wrap(faults.ErrTransfer, "telegram", "download", "", redactToken(err, b.api.Token))
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, faults.Wrap(faults.ErrTransfer, "telegram", "download", fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// redactToken keeps the bot token out of errors that embed the request URL.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
