package session

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"hardsub/internal/chat"
	"hardsub/internal/faults"
	"hardsub/internal/fonts"
	"hardsub/internal/progress"
	"hardsub/internal/settings"
	"hardsub/internal/transcode"
)

const (
	textStartPrompt = "Great! Please send me the video file you want to process.\n" +
		"You can send it as a video or as a document.\n\n" +
		"You can send /cancel at any time to stop."
	textNotVideo           = "That doesn't look like a video. Please send a video file (either as a video or a document)."
	textVideoReceived      = "Video received! Now, please send the subtitle file (.srt, .ass or .ssa)."
	textDownloadSubtitle   = "Downloading subtitle file..."
	textNotSubtitle        = "That's not a valid subtitle file. Please send a .srt, .ass or .ssa file."
	textFilesReceived      = "Files received! Here are the default settings. You can change them or start muxing."
	textCurrentSettings    = "Here are the current settings. You can change them or start muxing."
	textSettingUpdated     = "Setting updated! Here are the current settings."
	textStarting           = "Starting the encoding process. This may take a while..."
	textCancelled          = "Operation cancelled."
	textBusy               = "Processing... Please wait."
	textJobNotCancellable  = "A job is already running and cannot be cancelled. You will get the result when it finishes."
	textAlreadyInProgress  = "A session is already in progress. Send /cancel to start over."
	textExpired            = "Session expired after inactivity. Send /mux to start again."
	textProbeDegraded      = "⚠️ Could not determine video duration. Progress bar will not be shown."
	textEncodeComplete     = "✅ Encoding complete! Now uploading as a document..."
	textDeliveredCaption   = "Here is your processed video."
	textDone               = "Done! ✨"
	labelStart             = "✅ Start Muxing ✅"
	labelCancel            = "❌ Cancel ❌"
	labelBack              = "« Back"
	maxUserErrorCharacters = 300
)

func helpText(name string) string {
	greeting := "👋 Hi!"
	if name = strings.TrimSpace(name); name != "" {
		greeting = fmt.Sprintf("👋 Hi %s!", name)
	}
	return greeting + "\n\n" +
		"I can hardcode subtitles into your videos.\n\n" +
		"To get started, use the /mux command."
}

func downloadingVideoText(file chat.File) string {
	if file.Size > 0 {
		return fmt.Sprintf("Downloading video (%s)...", humanize.IBytes(uint64(file.Size)))
	}
	return "Downloading video..."
}

func videoDownloadFailedText(err error) string {
	return fmt.Sprintf("❌ Error downloading video: %s\nPlease try again or send a different file.", shortCause(err))
}

func subtitleDownloadFailedText(err error) string {
	return fmt.Sprintf("❌ Error downloading subtitle: %s\nPlease try again.", shortCause(err))
}

func submenuPrompt(key settings.Key) string {
	return fmt.Sprintf("Select a new value for %s:", key.Title())
}

// mainMenu renders the settings overview keyboard.
func mainMenu(cfg settings.Configuration) chat.Keyboard {
	button := func(key settings.Key) chat.Button {
		value, _ := cfg.Get(key)
		return chat.Button{
			Label:  fmt.Sprintf("%s: %s", key.Label(), value),
			Action: chat.ChangeOption{Key: key},
		}
	}
	return chat.Keyboard{
		{button(settings.KeyResolution), button(settings.KeyCRF)},
		{button(settings.KeyCodec), button(settings.KeyPreset)},
		{button(settings.KeyFontName), button(settings.KeyFontSize)},
		{button(settings.KeyMarginV)},
		{{Label: labelStart, Action: chat.StartJob{}}},
		{{Label: labelCancel, Action: chat.Cancel{}}},
	}
}

// submenu renders the choices for key two per row followed by a Back row.
func submenu(key settings.Key) (chat.Keyboard, error) {
	opts, err := settings.Options(key)
	if err != nil {
		return nil, err
	}
	var rows chat.Keyboard
	for i := 0; i < len(opts); i += 2 {
		end := min(i+2, len(opts))
		row := make([]chat.Button, 0, 2)
		for _, opt := range opts[i:end] {
			row = append(row, chat.Button{Label: opt.Label, Action: chat.SetValue{Key: key, Value: opt.Value}})
		}
		rows = append(rows, row)
	}
	return append(rows, []chat.Button{{Label: labelBack, Action: chat.Back{}}}), nil
}

func progressMessage(evt progress.Event) chat.Message {
	return chat.Message{
		Text:   fmt.Sprintf("⚙️ Encoding...\n\n<code>%s</code>", html.EscapeString(evt.Bar)),
		Format: chat.FormatHTML,
	}
}

// outcomeMessage renders the terminal status for a failed job. The boolean is
// false for successes, which are reported by the delivery path instead.
func outcomeMessage(result transcode.Result) (chat.Message, bool) {
	switch result.Outcome {
	case transcode.OutcomeSuccess:
		return chat.Message{}, false
	case transcode.OutcomePrecondition:
		return fontMissingMessage(result), true
	case transcode.OutcomeProcess:
		tail := result.StderrTail
		if tail == "" {
			tail = shortCause(result.Err)
		}
		return chat.Message{
			Text:   fmt.Sprintf("❌ FFmpeg failed!\n\n<b>Error:</b>\n<pre>%s</pre>", html.EscapeString(tail)),
			Format: chat.FormatHTML,
		}, true
	case transcode.OutcomeDelivery:
		return chat.Text("❌ Encoding finished but the upload failed: " + shortCause(result.Err)), true
	default:
		return chat.Text("An unexpected error occurred: " + shortCause(result.Err)), true
	}
}

func fontMissingMessage(result transcode.Result) chat.Message {
	font := result.Settings.FontName
	path := result.FontPath
	if path == "" || errors.Is(result.Err, fonts.ErrNotRegistered) {
		path = "Not Defined"
	}
	text := fmt.Sprintf("🚨 <b>Font File Not Found!</b>\n\n"+
		"I could not find the required font file for '%s' at:\n<code>%s</code>\n\n"+
		"Please ask the operator to install the font file and register it under [fonts].",
		html.EscapeString(font), html.EscapeString(path))
	return chat.Message{Text: text, Format: chat.FormatHTML}
}

// shortCause turns an error into a bounded single-paragraph explanation.
func shortCause(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{
		faults.ErrInputRejected, faults.ErrTransfer, faults.ErrPrecondition,
		faults.ErrProbeDegraded, faults.ErrProcess, faults.ErrUnexpected,
	} {
		msg = strings.TrimPrefix(msg, marker.Error()+": ")
	}
	runes := []rune(msg)
	if len(runes) > maxUserErrorCharacters {
		msg = string(runes[:maxUserErrorCharacters-1]) + "…"
	}
	return msg
}

func videoName(file chat.File) string {
	if name := strings.TrimSpace(file.Name); name != "" {
		return name
	}
	return fmt.Sprintf("input_video_%s.mp4", file.UniqueID)
}
