package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateFonts(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"telegram.poll_timeout":         c.Telegram.PollTimeout,
		"telegram.download_timeout":     c.Telegram.DownloadTimeout,
		"telegram.upload_timeout":       c.Telegram.UploadTimeout,
		"ffmpeg.probe_timeout":          c.FFmpeg.ProbeTimeout,
		"ffmpeg.stderr_tail_chars":      c.FFmpeg.StderrTailChars,
		"session.idle_timeout":          c.Session.IdleTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateTelegram() error {
	if strings.Count(c.Telegram.APIEndpoint, "%s") != 2 {
		return errors.New("telegram.api_endpoint must contain two %s placeholders (token, method)")
	}
	if strings.Count(c.Telegram.FileEndpoint, "%s") != 2 {
		return errors.New("telegram.file_endpoint must contain two %s placeholders (token, file path)")
	}
	return nil
}

func (c *Config) validateFonts() error {
	if len(c.Fonts) == 0 {
		return errors.New("fonts must register at least one font")
	}
	names := make([]string, 0, len(c.Fonts))
	for name := range c.Fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c.Fonts[name] == "" {
			return fmt.Errorf("fonts.%q must name a font file", name)
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
