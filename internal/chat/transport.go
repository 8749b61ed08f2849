package chat

import (
	"context"
	"errors"
	"io"

	"hardsub/internal/assets"
)

// ErrNotModified is returned by EditMessage when the new content equals the
// current content. Callers treat it as success.
var ErrNotModified = errors.New("message is not modified")

// Format selects how message text is interpreted.
type Format int

const (
	FormatPlain Format = iota
	// FormatHTML enables the transport's limited HTML markup (<b>, <code>, <pre>).
	FormatHTML
)

// Button is one inline keyboard button.
type Button struct {
	Label  string
	Action Action
}

// Keyboard is a grid of buttons, row by row.
type Keyboard [][]Button

// Message is an outbound text message with an optional keyboard. A nil
// Keyboard removes any keyboard when editing.
type Message struct {
	Text     string
	Format   Format
	Keyboard Keyboard
}

// Text builds a plain message.
func Text(text string) Message {
	return Message{Text: text}
}

// MessageRef addresses a sent message for later edits.
type MessageRef struct {
	SessionID string
	MessageID int
}

// Document is a file upload.
type Document struct {
	Path    string
	Name    string
	Caption string
}

// File is an inbound attachment. Open starts the download; the caller closes
// the returned reader.
type File struct {
	Kind     assets.Kind
	Name     string
	MIME     string
	Size     int64
	UniqueID string
	Open     func(ctx context.Context) (io.ReadCloser, error)
}

// Transport is the outbound capability set the session layer needs.
// Implementations must be safe for concurrent use: a running job reports
// progress while the session keeps acknowledging button presses.
type Transport interface {
	SendMessage(ctx context.Context, sessionID string, msg Message) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, msg Message) error
	SendDocument(ctx context.Context, sessionID string, doc Document) error
	// Acknowledge answers a button press, optionally with a short notice.
	Acknowledge(ctx context.Context, ackID, text string) error
}
