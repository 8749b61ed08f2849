// Package deps inspects the ffmpeg toolchain hardsub shells out to.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tool is the inspected state of one toolchain binary.
type Tool struct {
	Name    string
	Command string
	// Purpose says what the binary is used for.
	Purpose  string
	Optional bool
	// Path and Version are set once the binary has been found.
	Path      string
	Version   string
	Available bool
	// Problem explains why an unavailable tool cannot be used.
	Problem string
}

// Toolchain is the inspected ffmpeg and ffprobe pair.
type Toolchain struct {
	FFmpeg  Tool
	FFprobe Tool
}

// Tools returns both binaries, ffmpeg first.
func (tc Toolchain) Tools() []Tool {
	return []Tool{tc.FFmpeg, tc.FFprobe}
}

// Inspect resolves ffmpeg and ffprobe and records their versions. FFprobe is
// optional: without it jobs still run, only progress degrades. An ffmpeg
// build without the subtitles filter (libass) is unavailable because every
// job depends on it.
func Inspect(ctx context.Context, ffmpegBinary, ffprobeBinary string) Toolchain {
	tc := Toolchain{
		FFmpeg:  locate(Tool{Name: "FFmpeg", Command: ffmpegBinary, Purpose: "Burns subtitles into the video"}),
		FFprobe: locate(Tool{Name: "FFprobe", Command: ffprobeBinary, Purpose: "Reads the video duration for progress reporting", Optional: true}),
	}
	if tc.FFmpeg.Available {
		tc.FFmpeg.Version = probeVersion(ctx, tc.FFmpeg.Path)
		if !hasSubtitlesFilter(ctx, tc.FFmpeg.Path) {
			tc.FFmpeg.Available = false
			tc.FFmpeg.Problem = "ffmpeg was built without the subtitles filter (libass)"
		}
	}
	if tc.FFprobe.Available {
		tc.FFprobe.Version = probeVersion(ctx, tc.FFprobe.Path)
	}
	return tc
}

func locate(tool Tool) Tool {
	tool.Command = strings.TrimSpace(tool.Command)
	if tool.Command == "" {
		tool.Problem = "command not configured"
		return tool
	}
	path, err := exec.LookPath(tool.Command)
	if err != nil {
		tool.Problem = fmt.Sprintf("binary %q not found", tool.Command)
		return tool
	}
	tool.Path = path
	tool.Available = true
	return tool
}
