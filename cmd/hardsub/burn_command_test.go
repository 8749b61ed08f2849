package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hardsub/internal/config"
	"hardsub/internal/settings"
)

type burnEnv struct {
	*cliTestEnv
	video    string
	subtitle string
}

func setupBurnEnv(t *testing.T, ffmpegScript string) burnEnv {
	t.Helper()
	requirePOSIX(t)
	bin := t.TempDir()
	ffmpeg := writeFile(t, filepath.Join(bin, "ffmpeg"), ffmpegScript, 0o755)
	ffprobe := writeFile(t, filepath.Join(bin, "ffprobe"), fakeFFprobe, 0o755)

	env := setupCLITestEnv(t, func(cfg *config.Config) {
		cfg.FFmpeg.FFmpegBinary = ffmpeg
		cfg.FFmpeg.FFprobeBinary = ffprobe
	})
	writeFile(t, filepath.Join(env.cfg.Paths.FontsDir, "HelveticaRounded-Bold.ttf"), "font", 0o644)

	media := t.TempDir()
	return burnEnv{
		cliTestEnv: env,
		video:      writeFile(t, filepath.Join(media, "holiday.mp4"), "video", 0o644),
		subtitle:   writeFile(t, filepath.Join(media, "holiday.srt"), "1\n00:00:00,000 --> 00:00:01,000\nhi\n", 0o644),
	}
}

func TestBurnWritesOutputNextToVideo(t *testing.T) {
	env := setupBurnEnv(t, fakeFFmpeg)

	out, _, err := runCLI(t, []string{"burn", "--video", env.video, "--subtitle", env.subtitle, "--progress-interval", "1ns"}, env.configPath)
	if err != nil {
		t.Fatalf("burn: %v\n%s", err, out)
	}
	want := filepath.Join(filepath.Dir(env.video), "holiday.hardsub.mp4")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected output at %s: %v", want, err)
	}
	if string(data) != "encoded" {
		t.Fatalf("unexpected output contents %q", data)
	}
	requireContains(t, out, "Encoding... [")
	requireContains(t, out, "100%")
	requireContains(t, out, "Wrote "+want)

	entries, err := os.ReadDir(env.cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch to be cleaned, found %d entries", len(entries))
	}
}

func TestBurnHonoursOutputAndOptions(t *testing.T) {
	env := setupBurnEnv(t, fakeFFmpeg)
	target := filepath.Join(t.TempDir(), "nested", "final.mp4")

	_, _, err := runCLI(t, []string{
		"burn", "--video", env.video, "--subtitle", env.subtitle,
		"-o", target, "--resolution", "1080p", "--codec", "libx265", "--font-size", "36",
	}, env.configPath)
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected output at %s: %v", target, err)
	}
}

func TestBurnRejectsUnknownOptionValue(t *testing.T) {
	env := setupBurnEnv(t, fakeFFmpeg)
	_, _, err := runCLI(t, []string{"burn", "--video", env.video, "--subtitle", env.subtitle, "--crf", "99"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--crf") {
		t.Fatalf("expected crf rejection, got %v", err)
	}
}

func TestBurnRejectsNonSubtitle(t *testing.T) {
	env := setupBurnEnv(t, fakeFFmpeg)
	notes := writeFile(t, filepath.Join(t.TempDir(), "notes.txt"), "x", 0o644)
	_, _, err := runCLI(t, []string{"burn", "--video", env.video, "--subtitle", notes}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "subtitle must be one of") {
		t.Fatalf("expected subtitle rejection, got %v", err)
	}
}

func TestBurnReportsFFmpegFailure(t *testing.T) {
	env := setupBurnEnv(t, failingFFmpeg)
	out, _, err := runCLI(t, []string{"burn", "--video", env.video, "--subtitle", env.subtitle}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "process_failed") {
		t.Fatalf("expected process failure, got %v", err)
	}
	requireContains(t, out, "Unknown encoder 'libx265'")
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(env.video), "holiday.hardsub.mp4")); !os.IsNotExist(statErr) {
		t.Fatalf("no output expected after failure, stat err %v", statErr)
	}
}

func TestBurnFlagsCoverEveryOption(t *testing.T) {
	cmd := newBurnCommand(newCommandContext(new(string)))
	for _, key := range settings.Keys() {
		flag := cmd.Flags().Lookup(flagName(key))
		if flag == nil {
			t.Fatalf("missing flag for %s", key)
		}
		want, _ := settings.Defaults().Get(key)
		if flag.DefValue != want {
			t.Fatalf("flag --%s default %q, want %q", flagName(key), flag.DefValue, want)
		}
	}
}
