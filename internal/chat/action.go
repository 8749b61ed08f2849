package chat

import (
	"errors"
	"fmt"
	"strings"

	"hardsub/internal/settings"
)

// ErrUnknownAction is returned by ParseAction for payloads no button produces.
var ErrUnknownAction = errors.New("unknown button action")

// Action is a recognized button press. The concrete types are ChangeOption,
// SetValue, Back, StartJob and Cancel.
type Action interface {
	isAction()
}

// ChangeOption opens the choice menu for Key.
type ChangeOption struct {
	Key settings.Key
}

// SetValue chooses Value for Key.
type SetValue struct {
	Key   settings.Key
	Value string
}

// Back returns from a choice menu to the main menu.
type Back struct{}

// StartJob launches the burn.
type StartJob struct{}

// Cancel abandons the session.
type Cancel struct{}

func (ChangeOption) isAction() {}
func (SetValue) isAction()     {}
func (Back) isAction()         {}
func (StartJob) isAction()     {}
func (Cancel) isAction()       {}

const (
	prefixChange = "change"
	prefixSet    = "set"
	tokenBack    = "back"
	tokenStart   = "start"
	tokenCancel  = "cancel"
)

// EncodeAction renders an action as compact callback data.
func EncodeAction(action Action) string {
	switch a := action.(type) {
	case ChangeOption:
		return prefixChange + ":" + string(a.Key)
	case SetValue:
		return prefixSet + ":" + string(a.Key) + ":" + a.Value
	case Back:
		return tokenBack
	case StartJob:
		return tokenStart
	case Cancel:
		return tokenCancel
	default:
		return ""
	}
}

// ParseAction decodes callback data produced by EncodeAction. Option keys must
// exist in the catalog; values are validated later by settings.Apply.
func ParseAction(data string) (Action, error) {
	data = strings.TrimSpace(data)
	switch data {
	case tokenBack:
		return Back{}, nil
	case tokenStart:
		return StartJob{}, nil
	case tokenCancel:
		return Cancel{}, nil
	}

	kind, rest, ok := strings.Cut(data, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
	}
	switch kind {
	case prefixChange:
		key, ok := settings.ParseKey(rest)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		return ChangeOption{Key: key}, nil
	case prefixSet:
		rawKey, value, ok := strings.Cut(rest, ":")
		key, known := settings.ParseKey(rawKey)
		if !ok || !known || value == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		return SetValue{Key: key, Value: value}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data)
}
