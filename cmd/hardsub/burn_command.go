package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hardsub/internal/assets"
	"hardsub/internal/fileutil"
	"hardsub/internal/fonts"
	"hardsub/internal/logging"
	"hardsub/internal/media/ffprobe"
	"hardsub/internal/progress"
	"hardsub/internal/settings"
	"hardsub/internal/transcode"
)

const burnSessionID = "cli"

type burnFlags struct {
	video    string
	subtitle string
	output   string
	interval time.Duration
	verbose  bool
	values   map[settings.Key]*string
}

func newBurnCommand(ctx *commandContext) *cobra.Command {
	flags := burnFlags{values: map[settings.Key]*string{}}

	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Burn a subtitle file into a video locally, without the bot",
		Example: `  hardsub burn --video talk.mp4 --subtitle talk.srt
  hardsub burn --video talk.mp4 --subtitle talk.ass --resolution 1080p --codec libx265 -o out.mp4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			chosen, err := flags.configuration()
			if err != nil {
				return err
			}
			video, subtitle, output, err := flags.paths()
			if err != nil {
				return err
			}

			root, err := os.MkdirTemp(cfg.Paths.ScratchDir, "burn-")
			if err != nil {
				return fmt.Errorf("create scratch directory: %w", err)
			}
			defer os.RemoveAll(root)

			logger := logging.NewNop()
			if flags.verbose {
				logger, err = logging.New(logging.Options{Level: "debug", Format: cfg.Logging.Format, OutputPaths: []string{"stderr"}})
				if err != nil {
					return err
				}
			}

			store := assets.NewStore(root, logger)
			dir, err := store.Prepare(burnSessionID)
			if err != nil {
				return err
			}
			supervisor := transcode.NewSupervisor(
				cfg.FFmpeg.FFmpegBinary,
				fonts.NewRegistry(cfg.Paths.FontsDir, cfg.Fonts),
				ffprobe.NewProber(cfg.FFmpeg.FFprobeBinary, cfg.ProbeTimeout()),
				store,
				logger,
				transcode.WithRunner(transcode.ExecRunner{TailChars: cfg.FFmpeg.StderrTailChars}),
				transcode.WithProgressOptions(progress.WithInterval(flags.interval)),
			)

			out := cmd.OutOrStdout()
			rep := &burnReporter{out: out, live: isTerminal(out), dest: output}
			result := supervisor.Run(cmd.Context(), transcode.Spec{
				SessionID:    burnSessionID,
				Dir:          dir,
				VideoPath:    video,
				SubtitlePath: subtitle,
				Settings:     chosen,
			}, rep)
			rep.finishLine()
			return reportBurn(out, result, output)
		},
	}

	cmd.Flags().StringVar(&flags.video, "video", "", "Input video file")
	cmd.Flags().StringVar(&flags.subtitle, "subtitle", "", "Subtitle file (.srt, .ass or .ssa)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default <video>.hardsub.mp4 next to the input)")
	cmd.Flags().DurationVar(&flags.interval, "progress-interval", progress.DefaultInterval, "Minimum time between progress updates")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log the ffmpeg command and job details to stderr")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("subtitle")

	defaults := settings.Defaults()
	for _, key := range settings.Keys() {
		value, _ := defaults.Get(key)
		options, _ := settings.Options(key)
		choices := make([]string, 0, len(options))
		for _, opt := range options {
			choices = append(choices, opt.Value)
		}
		flags.values[key] = cmd.Flags().String(flagName(key), value,
			fmt.Sprintf("%s (one of: %s)", key.Label(), strings.Join(choices, ", ")))
	}
	return cmd
}

func flagName(key settings.Key) string {
	return strings.ReplaceAll(string(key), "_", "-")
}

func (f burnFlags) configuration() (settings.Configuration, error) {
	cfg := settings.Defaults()
	for _, key := range settings.Keys() {
		value, ok := f.values[key]
		if !ok || value == nil {
			continue
		}
		next, err := settings.Apply(cfg, key, strings.TrimSpace(*value))
		if err != nil {
			return cfg, fmt.Errorf("--%s: %w", flagName(key), err)
		}
		cfg = next
	}
	return cfg, nil
}

func (f burnFlags) paths() (video, subtitle, output string, err error) {
	if video, err = existingFile(f.video, "video"); err != nil {
		return "", "", "", err
	}
	if subtitle, err = existingFile(f.subtitle, "subtitle"); err != nil {
		return "", "", "", err
	}
	if !assets.IsSubtitle(subtitle) {
		return "", "", "", fmt.Errorf("subtitle must be one of %s", strings.Join(assets.SubtitleExtensions(), ", "))
	}
	output = strings.TrimSpace(f.output)
	if output == "" {
		output = filepath.Join(filepath.Dir(video), transcode.DeliveredName(video))
	}
	if output, err = filepath.Abs(output); err != nil {
		return "", "", "", err
	}
	if output == video {
		return "", "", "", errors.New("output would overwrite the input video")
	}
	return video, subtitle, output, nil
}

func existingFile(path, label string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("--%s is required", label)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", label, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %s is a directory", label, abs)
	}
	return abs, nil
}

// burnReporter prints progress to the terminal and moves the finished output
// to its destination before the scratch directory is removed.
type burnReporter struct {
	out     io.Writer
	live    bool
	dest    string
	pending bool
}

func (r *burnReporter) Progress(_ context.Context, evt progress.Event) {
	line := "Encoding... " + evt.Bar
	if r.live {
		fmt.Fprintf(r.out, "\r%s", line)
		r.pending = true
		return
	}
	fmt.Fprintln(r.out, line)
}

func (r *burnReporter) ProbeDegraded(_ context.Context, err error) {
	r.finishLine()
	fmt.Fprintf(r.out, "Warning: could not read the video duration, progress is unavailable (%v)\n", err)
}

func (r *burnReporter) Deliver(_ context.Context, path string) error {
	r.finishLine()
	return fileutil.MoveFile(path, r.dest)
}

func (r *burnReporter) finishLine() {
	if r.pending {
		fmt.Fprintln(r.out)
		r.pending = false
	}
}

func reportBurn(out io.Writer, result transcode.Result, output string) error {
	switch result.Outcome {
	case transcode.OutcomeSuccess:
		fmt.Fprintf(out, "Wrote %s in %s\n", output, result.Elapsed.Round(time.Second))
		return nil
	case transcode.OutcomeProcess:
		if tail := strings.TrimSpace(result.StderrTail); tail != "" {
			fmt.Fprintf(out, "ffmpeg output:\n%s\n", tail)
		}
	case transcode.OutcomePrecondition:
		if result.FontPath != "" {
			fmt.Fprintf(out, "Font file expected at %s\n", result.FontPath)
		}
	}
	return fmt.Errorf("burn failed (%s): %w", result.Outcome, result.Err)
}
