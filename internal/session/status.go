package session

import (
	"context"
	"errors"

	"hardsub/internal/chat"
)

// statusMessage is an editable message owned by one session. Show edits the
// message in place once it exists and sends it otherwise.
type statusMessage struct {
	transport chat.Transport
	sessionID string
	ref       chat.MessageRef
}

func newStatusMessage(transport chat.Transport, sessionID string, ref chat.MessageRef) *statusMessage {
	return &statusMessage{transport: transport, sessionID: sessionID, ref: ref}
}

func (s *statusMessage) exists() bool {
	return s.ref.MessageID != 0
}

// Show displays msg. Identical content is not an error. When an edit fails
// and resend is set, msg is sent as a new message that becomes the status.
func (s *statusMessage) Show(ctx context.Context, msg chat.Message, resend bool) error {
	if s.exists() {
		err := s.transport.EditMessage(ctx, s.ref, msg)
		if err == nil || errors.Is(err, chat.ErrNotModified) {
			return nil
		}
		if !resend {
			return err
		}
	}
	ref, err := s.transport.SendMessage(ctx, s.sessionID, msg)
	if err != nil {
		return err
	}
	s.ref = ref
	return nil
}
