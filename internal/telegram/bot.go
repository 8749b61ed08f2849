package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hardsub/internal/chat"
	"hardsub/internal/config"
	"hardsub/internal/faults"
	"hardsub/internal/logging"
)

// Options configures a Bot.
type Options struct {
	Token           string
	APIEndpoint     string
	FileEndpoint    string
	PollTimeout     time.Duration
	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
}

// OptionsFromConfig extracts bot options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Token:           cfg.Telegram.Token,
		APIEndpoint:     cfg.Telegram.APIEndpoint,
		FileEndpoint:    cfg.Telegram.FileEndpoint,
		PollTimeout:     cfg.PollTimeout(),
		DownloadTimeout: cfg.DownloadTimeout(),
		UploadTimeout:   cfg.UploadTimeout(),
	}
}

// Bot is a chat.Transport backed by the Telegram Bot API. It is safe for
// concurrent use.
type Bot struct {
	api      *tgbotapi.BotAPI
	opts     Options
	download *http.Client
	logger   *slog.Logger
}

// New connects to the Bot API and verifies the token with getMe.
func New(opts Options, logger *slog.Logger) (*Bot, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.FileEndpoint == "" {
		opts.FileEndpoint = tgbotapi.FileEndpoint
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60 * time.Second
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 5 * time.Minute
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 15 * time.Minute
	}

	logger = logging.NewComponentLogger(logger, "telegram")
	_ = tgbotapi.SetLogger(botLogger{logger: logger})

	// Long polls and uploads share this client, so its deadline covers the
	// longer of the two.
	client := &http.Client{Timeout: max(opts.UploadTimeout, opts.PollTimeout+10*time.Second)}
	api, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	logger.Info("telegram bot authorized", logging.String("username", api.Self.UserName))
	return &Bot{
		api:      api,
		opts:     opts,
		download: &http.Client{},
		logger:   logger,
	}, nil
}

// Username returns the bot's @handle.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// SendMessage implements chat.Transport.
func (b *Bot) SendMessage(ctx context.Context, sessionID string, msg chat.Message) (chat.MessageRef, error) {
	chatID, err := ChatID(sessionID)
	if err != nil {
		return chat.MessageRef{}, err
	}
	if err := ctx.Err(); err != nil {
		return chat.MessageRef{}, err
	}
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ParseMode = parseMode(msg.Format)
	if len(msg.Keyboard) > 0 {
		cfg.ReplyMarkup = inlineKeyboard(msg.Keyboard)
	}
	sent, err := b.api.Send(cfg)
	if err != nil {
		return chat.MessageRef{}, classify("send message", err)
	}
	return chat.MessageRef{SessionID: sessionID, MessageID: sent.MessageID}, nil
}

// EditMessage implements chat.Transport. Omitting the keyboard removes it.
func (b *Bot) EditMessage(ctx context.Context, ref chat.MessageRef, msg chat.Message) error {
	chatID, err := ChatID(ref.SessionID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewEditMessageText(chatID, ref.MessageID, msg.Text)
	cfg.ParseMode = parseMode(msg.Format)
	if len(msg.Keyboard) > 0 {
		markup := inlineKeyboard(msg.Keyboard)
		cfg.ReplyMarkup = &markup
	}
	if _, err := b.api.Request(cfg); err != nil {
		return classify("edit message", err)
	}
	return nil
}

// SendDocument implements chat.Transport.
func (b *Bot) SendDocument(ctx context.Context, sessionID string, doc chat.Document) error {
	chatID, err := ChatID(sessionID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.Open(doc.Path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	name := doc.Name
	if name == "" {
		name = file.Name()
	}
	cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: name, Reader: file})
	cfg.Caption = doc.Caption
	started := time.Now()
	if _, err := b.api.Send(cfg); err != nil {
		return classify("send document", err)
	}
	b.logger.Debug("document uploaded",
		logging.String("name", name),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// Acknowledge implements chat.Transport.
func (b *Bot) Acknowledge(ctx context.Context, ackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(ackID, text)); err != nil {
		return classify("answer callback", err)
	}
	return nil
}

// ChatID parses a session ID back into a Telegram chat ID.
func ChatID(sessionID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(sessionID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram session id %q: %w", sessionID, err)
	}
	return id, nil
}

// SessionID renders a chat ID as a session ID.
func SessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func parseMode(format chat.Format) string {
	if format == chat.FormatHTML {
		return tgbotapi.ModeHTML
	}
	return ""
}

func inlineKeyboard(keyboard chat.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Label, chat.EncodeAction(button.Action)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// classify maps Bot API failures onto chat and fault markers.
func classify(operation string, err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "message is not modified") {
		return chat.ErrNotModified
	}
	return faults.Wrap(faults.ErrTransfer, "telegram", operation, "", err)
}

// botLogger routes the library's own log lines through slog.
type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
