// Package config loads, normalizes, and validates hardsub configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the HARDSUB_TELEGRAM_TOKEN environment fallback. The
// Config type centralizes every knob the bot runtime and CLI need: scratch and
// log directories, the Telegram connection, ffmpeg binaries and limits, the
// font registry, and the optional history, notification and status API
// integrations.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
