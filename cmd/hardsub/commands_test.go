package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hardsub/internal/config"
	"hardsub/internal/history"
	"hardsub/internal/transcode"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestOptionsCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"options"}, "")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	for _, want := range []string{"Resolution", "1080p", "H.265 (libx265)", "veryfast", "Bottom Margin", "default"} {
		requireContains(t, out, want)
	}
}

func TestFontsCommand(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Fonts["Extra"] = "extra.otf"
	})
	writeFile(t, filepath.Join(env.cfg.Paths.FontsDir, "HelveticaRounded-Bold.ttf"), "font", 0o644)

	out, _, err := runCLI(t, []string{"fonts"}, env.configPath)
	if err != nil {
		t.Fatalf("fonts: %v", err)
	}
	requireContains(t, out, "Fonts directory: "+env.cfg.Paths.FontsDir)
	requireContains(t, out, filepath.Join(env.cfg.Paths.FontsDir, "extra.otf"))

	var helvetica, extra string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "HelveticaRounded-Bold.ttf"):
			helvetica = line
		case strings.Contains(line, "extra.otf"):
			extra = line
		}
	}
	if strings.Count(helvetica, "yes") != 2 {
		t.Fatalf("expected default font present and offered: %q", helvetica)
	}
	if strings.Count(extra, "no") != 2 {
		t.Fatalf("expected extra font missing and not offered: %q", extra)
	}
}

func TestHistoryCommand(t *testing.T) {
	disabled := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"history"}, disabled.configPath); err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}

	env := setupCLITestEnv(t, func(cfg *config.Config) { cfg.History.Enabled = true })
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history empty: %v", err)
	}
	requireContains(t, out, "No jobs recorded yet")

	store, err := history.Open(env.cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	rec := history.FromResult(transcode.Result{
		JobID:     "0123456789abcdef",
		SessionID: "42",
		VideoName: "holiday.mp4",
		Outcome:   transcode.OutcomeSuccess,
		Started:   time.Now().Add(-time.Hour),
		Elapsed:   95 * time.Second,
	})
	rec.Resolution, rec.CRF, rec.Codec, rec.Preset = "720p", "24", "libx264", "medium"
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = store.Close()

	out, _, err = runCLI(t, []string{"history", "--limit", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"01234567", "holiday.mp4", "success", "720p crf24 libx264/medium", "1m35s", "ago"} {
		requireContains(t, out, want)
	}
}

func TestNotifyTestCommand(t *testing.T) {
	disabled := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"notify", "test"}, disabled.configPath); err == nil {
		t.Fatal("expected error without ntfy topic")
	}

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, func(cfg *config.Config) { cfg.Notifications.NtfyTopic = srv.URL })
	out, _, err := runCLI(t, []string{"notify", "test"}, env.configPath)
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if got != "hardsub - Test" {
		t.Fatalf("unexpected ntfy title %q", got)
	}
}

func TestCheckCommand(t *testing.T) {
	requirePOSIX(t)
	bin := t.TempDir()
	ffmpeg := writeFile(t, filepath.Join(bin, "ffmpeg"), fakeFFmpeg, 0o755)
	ffprobe := writeFile(t, filepath.Join(bin, "ffprobe"), fakeFFprobe, 0o755)

	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.FFmpeg.FFmpegBinary = ffmpeg
		cfg.FFmpeg.FFprobeBinary = ffprobe
	})
	writeFile(t, filepath.Join(env.cfg.Paths.FontsDir, "HelveticaRounded-Bold.ttf"), "font", 0o644)

	out, _, err := runCLI(t, []string{"check", "--offline"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "== hardsub readiness ==")
	requireContains(t, out, "[OK] "+ffmpeg+" (version 6.1.1)")
	requireContains(t, out, "5 ok, 0 warnings, 0 failed")
	if strings.Contains(out, "ERROR") {
		t.Fatalf("unexpected failure in output:\n%s", out)
	}
}

func TestCheckCommandReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.FFmpeg.FFmpegBinary = "clearly-not-present-ffmpeg"
		cfg.FFmpeg.FFprobeBinary = "clearly-not-present-ffprobe"
	})

	out, _, err := runCLI(t, []string{"check", "--offline"}, env.configPath)
	if err == nil {
		t.Fatal("expected failing checks")
	}
	if err.Error() != "2 checks failed" {
		t.Fatalf("unexpected error %v", err)
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "2 ok, 1 warning, 2 failed")
}

func TestConfigShowMasksSecrets(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.Telegram.Token = "123456:very-secret"
		cfg.API.Bind = "127.0.0.1:8090"
		cfg.API.Token = "api-secret"
	})

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "very-secret") || strings.Contains(out, "api-secret") {
		t.Fatalf("secrets leaked:\n%s", out)
	}
	requireContains(t, out, "# "+env.configPath)
	requireContains(t, out, "bind = '127.0.0.1:8090'")
	requireContains(t, out, "scratch_dir = '"+env.cfg.Paths.ScratchDir+"'")
	if strings.Count(out, maskedSecret) != 2 {
		t.Fatalf("expected two masked secrets:\n%s", out)
	}
}
