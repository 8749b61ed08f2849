package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizeFFmpeg()
	c.normalizeFonts()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Session.IdleTimeout <= 0 {
		c.Session.IdleTimeout = defaultIdleTimeout
	}
	if c.Preflight.MinFreeGiB < 0 {
		c.Preflight.MinFreeGiB = 0
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FontsDir) == "" {
		c.Paths.FontsDir = defaultFontsDir
	}
	if c.Paths.FontsDir, err = expandPath(c.Paths.FontsDir); err != nil {
		return fmt.Errorf("paths.fonts_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if c.Telegram.Token == "" {
		if value, ok := os.LookupEnv(tokenEnvVar); ok {
			c.Telegram.Token = strings.TrimSpace(value)
		}
	}
	c.Telegram.APIEndpoint = strings.TrimSpace(c.Telegram.APIEndpoint)
	if c.Telegram.APIEndpoint == "" {
		c.Telegram.APIEndpoint = defaultTelegramEndpoint
	}
	c.Telegram.FileEndpoint = strings.TrimSpace(c.Telegram.FileEndpoint)
	if c.Telegram.FileEndpoint == "" {
		c.Telegram.FileEndpoint = defaultFileEndpoint
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = defaultPollTimeout
	}
	if c.Telegram.DownloadTimeout <= 0 {
		c.Telegram.DownloadTimeout = defaultDownloadTimeout
	}
	if c.Telegram.UploadTimeout <= 0 {
		c.Telegram.UploadTimeout = defaultUploadTimeout
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	if c.FFmpeg.FFmpegBinary == "" {
		c.FFmpeg.FFmpegBinary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if c.FFmpeg.ProbeTimeout <= 0 {
		c.FFmpeg.ProbeTimeout = defaultProbeTimeout
	}
	if c.FFmpeg.StderrTailChars <= 0 {
		c.FFmpeg.StderrTailChars = defaultStderrTailChars
	}
}

// normalizeFonts trims registry entries and keeps the default font entry
// present, since the default configuration always names it.
func (c *Config) normalizeFonts() {
	fonts := make(map[string]string, len(c.Fonts)+1)
	for name, path := range c.Fonts {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fonts[name] = strings.TrimSpace(path)
	}
	if _, ok := fonts[defaultFontName]; !ok {
		fonts[defaultFontName] = defaultFontFile
	}
	c.Fonts = fonts
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.Keep < 0 {
		c.History.Keep = 0
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
