package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	LogDir     string `toml:"log_dir"`
	FontsDir   string `toml:"fonts_dir"`
}

// Telegram contains the bot connection settings. Timeouts are seconds.
type Telegram struct {
	Token           string `toml:"token"`
	APIEndpoint     string `toml:"api_endpoint"`
	FileEndpoint    string `toml:"file_endpoint"`
	PollTimeout     int    `toml:"poll_timeout"`
	DownloadTimeout int    `toml:"download_timeout"`
	UploadTimeout   int    `toml:"upload_timeout"`
}

// FFmpeg contains toolchain settings for probing and encoding.
type FFmpeg struct {
	FFmpegBinary    string `toml:"ffmpeg_binary"`
	FFprobeBinary   string `toml:"ffprobe_binary"`
	ProbeTimeout    int    `toml:"probe_timeout"`
	StderrTailChars int    `toml:"stderr_tail_chars"`
}

// Session contains per-conversation runtime settings.
type Session struct {
	IdleTimeout int `toml:"idle_timeout"`
}

// API contains the optional operator status endpoint. Empty Bind disables it;
// a non-empty Token requires "Authorization: Bearer <token>".
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// History contains the optional job ledger settings.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Keep    int    `toml:"keep"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobCompleted   bool   `toml:"job_completed"`
	JobFailed      bool   `toml:"job_failed"`
}

// Preflight contains readiness thresholds.
type Preflight struct {
	MinFreeGiB float64 `toml:"min_free_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for hardsub.
//
// Configuration sections by subsystem:
//   - Paths: scratch, log and font directories
//   - Telegram: bot token, API endpoint and transfer timeouts
//   - FFmpeg: probe/encode binaries and diagnostic limits
//   - Fonts: display name to font file registry
//   - Session: idle worker retirement
//   - API: operator status endpoint
//   - History: SQLite job ledger
//   - Notifications: ntfy push notification settings
//   - Preflight: readiness thresholds
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths             `toml:"paths"`
	Telegram      Telegram          `toml:"telegram"`
	FFmpeg        FFmpeg            `toml:"ffmpeg"`
	Fonts         map[string]string `toml:"fonts"`
	Session       Session           `toml:"session"`
	API           API               `toml:"api"`
	History       History           `toml:"history"`
	Notifications Notifications     `toml:"notifications"`
	Preflight     Preflight         `toml:"preflight"`
	Logging       Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hardsub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the bot runtime writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ScratchDir, c.Paths.LogDir}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequireTelegram reports an error when no bot token is configured. Only the
// bot runtime needs one; offline commands work without it.
func (c *Config) RequireTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("telegram.token is required. Set %s env var or edit %s (create with 'hardsub config init')", tokenEnvVar, defaultPath)
}

// PollTimeout returns the long-poll timeout for update retrieval.
func (c *Config) PollTimeout() time.Duration {
	return seconds(c.Telegram.PollTimeout)
}

// DownloadTimeout bounds a single inbound file transfer.
func (c *Config) DownloadTimeout() time.Duration {
	return seconds(c.Telegram.DownloadTimeout)
}

// UploadTimeout bounds a single outbound document upload.
func (c *Config) UploadTimeout() time.Duration {
	return seconds(c.Telegram.UploadTimeout)
}

// ProbeTimeout bounds the ffprobe duration lookup.
func (c *Config) ProbeTimeout() time.Duration {
	return seconds(c.FFmpeg.ProbeTimeout)
}

// IdleTimeout is how long an idle session worker lingers before retiring.
func (c *Config) IdleTimeout() time.Duration {
	return seconds(c.Session.IdleTimeout)
}

// NotificationTimeout bounds a single ntfy request.
func (c *Config) NotificationTimeout() time.Duration {
	return seconds(c.Notifications.RequestTimeout)
}

// LockPath is the single-instance lock file inside the scratch root.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.ScratchDir, "hardsub.lock")
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
