// Package main hosts the hardsub CLI entrypoint and command graph.
//
// The Cobra command tree runs the Telegram bot (run), burns subtitles locally
// without chat (burn), reports readiness (check), renders the option catalog,
// font registry and job history, and scaffolds configuration. Configuration
// resolution lives in commandContext so subcommands only deal with their own
// flags.
package main
