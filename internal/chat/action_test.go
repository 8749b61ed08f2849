package chat_test

import (
	"errors"
	"testing"

	"hardsub/internal/chat"
	"hardsub/internal/settings"
)

func TestActionRoundTrip(t *testing.T) {
	actions := []chat.Action{
		chat.ChangeOption{Key: settings.KeyFontSize},
		chat.SetValue{Key: settings.KeyPreset, Value: "veryfast"},
		chat.SetValue{Key: settings.KeyFontName, Value: "HelveticaRounded-Bold"},
		chat.Back{},
		chat.StartJob{},
		chat.Cancel{},
	}
	for _, action := range actions {
		data := chat.EncodeAction(action)
		if len(data) > 64 {
			t.Errorf("callback data %q exceeds 64 bytes", data)
		}
		got, err := chat.ParseAction(data)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", data, err)
		}
		if got != action {
			t.Fatalf("round trip %q: got %#v, want %#v", data, got, action)
		}
	}
}

func TestParseActionRejectsUnknownPayloads(t *testing.T) {
	for _, data := range []string{
		"",
		"start_muxing",
		"change:bitrate",
		"set:crf",
		"set:crf:",
		"set:bitrate:5000k",
		"launch:now",
	} {
		if _, err := chat.ParseAction(data); !errors.Is(err, chat.ErrUnknownAction) {
			t.Errorf("ParseAction(%q) err = %v, want ErrUnknownAction", data, err)
		}
	}
}

func TestEveryCatalogValueFitsCallbackData(t *testing.T) {
	for _, key := range settings.Keys() {
		opts, err := settings.Options(key)
		if err != nil {
			t.Fatal(err)
		}
		for _, opt := range opts {
			data := chat.EncodeAction(chat.SetValue{Key: key, Value: opt.Value})
			if len(data) > 64 {
				t.Errorf("callback data %q exceeds 64 bytes", data)
			}
		}
	}
}
