package transcode

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"hardsub/internal/settings"
)

// Invocation is everything BuildArgs needs.
type Invocation struct {
	VideoPath    string
	SubtitlePath string
	FontPath     string
	OutputPath   string
	Settings     settings.Configuration
}

// BuildArgs returns the ffmpeg arguments (without the binary) for a burn:
// audio is copied, video is re-encoded with the chosen codec, preset and CRF,
// optionally rescaled, and the subtitles filter renders the subtitle file with
// the resolved font directory, font name, size and bottom margin. Progress is
// written to stdout as key=value lines.
func BuildArgs(in Invocation) []string {
	cfg := in.Settings
	args := []string{
		"-hide_banner",
		"-i", in.VideoPath,
		"-y",
		"-progress", "pipe:1",
		"-nostats",
		"-c:a", "copy",
		"-c:v", cfg.Codec,
		"-preset", cfg.Preset,
		"-crf", cfg.CRF,
	}
	if size, ok := settings.ScaleFor(cfg.Resolution); ok {
		args = append(args, "-s", size)
	}
	args = append(args, "-vf", SubtitleFilter(in.SubtitlePath, in.FontPath, cfg), in.OutputPath)
	return args
}

// SubtitleFilter renders the subtitles filter expression.
func SubtitleFilter(subtitlePath, fontPath string, cfg settings.Configuration) string {
	return fmt.Sprintf("subtitles='%s':fontsdir='%s':force_style='FontName=%s,FontSize=%s,MarginV=%s'",
		EscapeFilterPath(subtitlePath),
		EscapeFilterPath(filepath.Dir(fontPath)),
		cfg.FontName,
		cfg.FontSize,
		cfg.MarginV,
	)
}

var filterPathReplacer = strings.NewReplacer(
	`\`, "/",
	":", `\:`,
	"'", `'\\\''`,
)

// EscapeFilterPath makes a path safe to embed in a single-quoted filter
// option. The filtergraph parser unquotes once and the filter's option parser
// unescapes again, so colons carry an escape through the quoted section and a
// single quote leaves the quotes to emit an escaped backslash and quote.
// Backslashes become forward slashes.
func EscapeFilterPath(path string) string {
	return filterPathReplacer.Replace(path)
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// QuoteCommand renders binary and args as a copy-pasteable shell command line.
func QuoteCommand(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, arg := range append([]string{binary}, args...) {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if shellSafe.MatchString(arg) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}
