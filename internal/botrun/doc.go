// Package botrun hosts the bot process: it assembles the asset store, burn
// supervisor, session manager and optional operator components from the
// configuration, holds the single-instance lock, polls Telegram for updates
// and shuts everything down in order when the process is signalled.
package botrun
