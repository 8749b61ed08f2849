// Package telegram adapts the Telegram Bot API to the chat.Transport contract
// and turns inbound updates into session events.
//
// A session is one Telegram chat: the session ID is the decimal chat ID. Bot
// long-polls for updates, translates commands (/mux, /cancel, /start, /help),
// video and document attachments, and inline button presses, and dispatches
// the results. Button payloads that do not parse are acknowledged and dropped
// here so the session layer only sees recognized actions.
package telegram
