package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hardsub/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsTokenEnv(t *testing.T) {
	t.Setenv("HARDSUB_TELEGRAM_TOKEN", "123:abc")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "hardsub", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantScratch := filepath.Join(tempHome, ".local", "share", "hardsub", "scratch")
	if cfg.Paths.ScratchDir != wantScratch {
		t.Fatalf("unexpected scratch dir: got %q want %q", cfg.Paths.ScratchDir, wantScratch)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("expected token from env, got %q", cfg.Telegram.Token)
	}
	if err := cfg.RequireTelegram(); err != nil {
		t.Fatalf("RequireTelegram: %v", err)
	}
	if cfg.FFmpeg.StderrTailChars != 1000 {
		t.Fatalf("unexpected stderr tail default %d", cfg.FFmpeg.StderrTailChars)
	}
	if cfg.Fonts["HelveticaRounded-Bold"] != "HelveticaRounded-Bold.ttf" {
		t.Fatalf("unexpected default fonts %v", cfg.Fonts)
	}
	if cfg.History.Enabled {
		t.Fatal("expected history disabled by default")
	}
	if cfg.API.Bind != "" {
		t.Fatalf("expected status API disabled by default, got %q", cfg.API.Bind)
	}
	if cfg.LockPath() != filepath.Join(wantScratch, "hardsub.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ScratchDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestRequireTelegramWithoutToken(t *testing.T) {
	t.Setenv("HARDSUB_TELEGRAM_TOKEN", "")
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	err = cfg.RequireTelegram()
	if err == nil {
		t.Fatal("expected missing token error")
	}
	if !strings.Contains(err.Error(), "HARDSUB_TELEGRAM_TOKEN") {
		t.Fatalf("error should mention env var: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hardsub.toml")

	type payload struct {
		Paths struct {
			ScratchDir string `toml:"scratch_dir"`
			FontsDir   string `toml:"fonts_dir"`
		} `toml:"paths"`
		Telegram struct {
			Token string `toml:"token"`
		} `toml:"telegram"`
		FFmpeg struct {
			StderrTailChars int `toml:"stderr_tail_chars"`
		} `toml:"ffmpeg"`
		Fonts   map[string]string `toml:"fonts"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.ScratchDir = filepath.Join(tempDir, "scratch")
	custom.Paths.FontsDir = filepath.Join(tempDir, "fonts")
	custom.Telegram.Token = " file-token "
	custom.FFmpeg.StderrTailChars = 400
	custom.Fonts = map[string]string{" Roboto ": "Roboto-Regular.ttf"}
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be found, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.ScratchDir != custom.Paths.ScratchDir {
		t.Fatalf("unexpected scratch dir %q", cfg.Paths.ScratchDir)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Fatalf("expected trimmed token, got %q", cfg.Telegram.Token)
	}
	if cfg.FFmpeg.StderrTailChars != 400 {
		t.Fatalf("unexpected stderr tail %d", cfg.FFmpeg.StderrTailChars)
	}
	if cfg.Fonts["Roboto"] != "Roboto-Regular.ttf" {
		t.Fatalf("expected trimmed font name, got %v", cfg.Fonts)
	}
	if _, ok := cfg.Fonts["HelveticaRounded-Bold"]; !ok {
		t.Fatalf("default font entry should merge with file entries, got %v", cfg.Fonts)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"endpoint placeholders", "[telegram]\napi_endpoint = \"https://example.com/bot\"\n", "api_endpoint"},
		{"api bind", "[api]\nbind = \"localhost\"\n", "api.bind"},
		{"log level", "[logging]\nlevel = \"verbose\"\n", "logging.level"},
		{"empty font path", "[fonts]\nBroken = \"\"\n", "Broken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hardsub.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	defaults := config.Default()
	if cfg.FFmpeg.StderrTailChars != defaults.FFmpeg.StderrTailChars {
		t.Fatalf("sample stderr_tail_chars drifted from defaults: %d", cfg.FFmpeg.StderrTailChars)
	}
	if cfg.Telegram.UploadTimeout != defaults.Telegram.UploadTimeout {
		t.Fatalf("sample upload_timeout drifted from defaults: %d", cfg.Telegram.UploadTimeout)
	}
	if cfg.Logging.RetentionDays != defaults.Logging.RetentionDays {
		t.Fatalf("sample retention_days drifted from defaults: %d", cfg.Logging.RetentionDays)
	}
	if !strings.Contains(config.SampleConfig(), "family or PostScript name") {
		t.Fatal("sample config should explain how [fonts] keys are matched")
	}
}
