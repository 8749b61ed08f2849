package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"hardsub/internal/assets"
	"hardsub/internal/faults"
	"hardsub/internal/logging"
	"hardsub/internal/progress"
)

// Reporter receives a job's user-facing updates. Calls arrive on the job's
// goroutine.
type Reporter interface {
	// Progress is called for every throttled progress event.
	Progress(ctx context.Context, evt progress.Event)
	// ProbeDegraded is called once when the input duration is unknown and
	// progress reporting is therefore disabled.
	ProbeDegraded(ctx context.Context, err error)
	// Deliver uploads the finished output. The file is removed after Deliver
	// returns.
	Deliver(ctx context.Context, path string) error
}

// FontResolver maps a font display name to a file.
type FontResolver interface {
	Resolve(name string) (string, error)
}

// DurationProber reports an input's duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Cleaner removes a session directory. It must tolerate missing directories.
type Cleaner interface {
	Teardown(dir string)
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithRunner replaces the process runner (primarily for tests).
func WithRunner(runner Runner) Option {
	return func(s *Supervisor) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithProgressOptions forwards options to every job's progress decoder.
func WithProgressOptions(opts ...progress.Option) Option {
	return func(s *Supervisor) {
		s.progressOpts = append(s.progressOpts, opts...)
	}
}

// WithIDGenerator replaces the job ID generator.
func WithIDGenerator(next func() string) Option {
	return func(s *Supervisor) {
		if next != nil {
			s.newID = next
		}
	}
}

// Supervisor runs burn jobs. It holds no per-job state and is safe for
// concurrent use by many sessions.
type Supervisor struct {
	binary       string
	fonts        FontResolver
	prober       DurationProber
	cleaner      Cleaner
	runner       Runner
	logger       *slog.Logger
	progressOpts []progress.Option
	newID        func() string
}

// NewSupervisor constructs a Supervisor that runs binary (ffmpeg).
func NewSupervisor(binary string, fonts FontResolver, prober DurationProber, cleaner Cleaner, logger *slog.Logger, opts ...Option) *Supervisor {
	if binary == "" {
		binary = "ffmpeg"
	}
	s := &Supervisor{
		binary:  binary,
		fonts:   fonts,
		prober:  prober,
		cleaner: cleaner,
		runner:  ExecRunner{},
		logger:  logging.NewComponentLogger(logger, "transcode"),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes spec to completion and returns its terminal result. The
// session directory spec.Dir is torn down exactly once before Run returns, on
// every path.
func (s *Supervisor) Run(ctx context.Context, spec Spec, rep Reporter) (result Result) {
	if spec.JobID == "" {
		spec.JobID = s.newID()
	}
	result = Result{
		JobID:     spec.JobID,
		SessionID: spec.SessionID,
		Settings:  spec.Settings,
		VideoName: spec.DisplayName(),
		Started:   time.Now(),
	}
	ctx = logging.WithJobID(logging.WithSessionID(ctx, spec.SessionID), result.JobID)
	logger := logging.WithContext(ctx, s.logger)

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "burn job panicked", "job_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report this crash with the log file attached"),
			)
			result.Outcome = OutcomeUnexpected
			result.Err = faults.Wrap(faults.ErrUnexpected, "transcode", "run", fmt.Sprint(r), nil)
		}
		if s.cleaner != nil {
			s.cleaner.Teardown(spec.Dir)
		}
		result.Elapsed = time.Since(result.Started)
		s.logResult(logger, result)
	}()

	s.run(ctx, logger, spec, rep, &result)
	return result
}

func (s *Supervisor) run(ctx context.Context, logger *slog.Logger, spec Spec, rep Reporter, result *Result) {
	if spec.VideoPath == "" || spec.SubtitlePath == "" {
		result.Outcome = OutcomeUnexpected
		result.Err = faults.Wrap(faults.ErrUnexpected, "transcode", "validate", "job started without both inputs", nil)
		return
	}

	fontPath, err := s.fonts.Resolve(spec.Settings.FontName)
	result.FontPath = fontPath
	if err != nil {
		result.Outcome = OutcomePrecondition
		result.Err = err
		return
	}

	duration, err := s.prober.Duration(ctx, spec.VideoPath)
	if err != nil {
		duration = 0
		result.ProbeDegraded = true
		logging.WarnWithContext(logger, "duration probe failed; progress disabled", "probe_degraded",
			logging.String("video", spec.VideoPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that ffprobe is installed and the upload is a readable video"),
			logging.String(logging.FieldImpact, "no progress bar for this job"),
		)
		rep.ProbeDegraded(ctx, faults.Wrap(faults.ErrProbeDegraded, "transcode", "probe", "", err))
	}
	result.DurationSeconds = duration

	output := spec.OutputPath
	if output == "" {
		output = filepath.Join(spec.Dir, assets.OutputName)
	}
	args := BuildArgs(Invocation{
		VideoPath:    spec.VideoPath,
		SubtitlePath: spec.SubtitlePath,
		FontPath:     fontPath,
		OutputPath:   output,
		Settings:     spec.Settings,
	})
	logger.Info("starting ffmpeg",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("command", QuoteCommand(s.binary, args)),
		logging.Float64("duration_seconds", duration),
	)

	proc, err := s.runner.Start(ctx, s.binary, args)
	if err != nil {
		result.Outcome = OutcomeUnexpected
		result.Err = faults.Wrap(faults.ErrUnexpected, "transcode", "start ffmpeg", "", err)
		return
	}

	s.pump(ctx, logger, proc, duration, rep)

	if err := proc.Wait(); err != nil {
		perr := newProcessError(err, proc.StderrTail())
		if ctx.Err() != nil {
			perr.Err = fmt.Errorf("%w (%w)", err, ctx.Err())
		}
		result.Outcome = OutcomeProcess
		result.StderrTail = perr.Tail
		result.Err = perr
		return
	}

	if _, err := os.Stat(output); err != nil {
		result.Outcome = OutcomeUnexpected
		result.Err = faults.Wrap(faults.ErrUnexpected, "transcode", "verify output", "ffmpeg reported success without output", err)
		return
	}
	result.OutputPath = output

	if err := rep.Deliver(ctx, output); err != nil {
		result.Outcome = OutcomeDelivery
		result.Err = faults.Wrap(faults.ErrTransfer, "transcode", "deliver", "", err)
		return
	}
	result.Outcome = OutcomeSuccess
}

// pump feeds the progress stream through a decoder into rep, then drains
// whatever is left so the process never blocks on a full pipe.
func (s *Supervisor) pump(ctx context.Context, logger *slog.Logger, proc Process, duration float64, rep Reporter) {
	stream := proc.Progress()
	decoder := progress.NewDecoder(duration, s.progressOpts...)
	sampler := logging.NewProgressSampler(10)
	lines := progress.Lines(stream)

	for evt := range decoder.Events(lines.All()) {
		if sampler.ShouldLog(evt.Percent) {
			logger.Info("encoding progress", logging.Int(logging.FieldProgressPercent, evt.Percent))
		}
		rep.Progress(ctx, evt)
	}
	if err := lines.Err(); err != nil {
		logger.Debug("progress stream read stopped", logging.Error(err))
	}
	if _, err := io.Copy(io.Discard, stream); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Debug("progress stream drain failed", logging.Error(err))
	}
}

func (s *Supervisor) logResult(logger *slog.Logger, result Result) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "job_finished"),
		logging.String("outcome", result.Outcome.String()),
		logging.Duration("elapsed", result.Elapsed),
	}
	if result.Outcome == OutcomeSuccess {
		logger.Info("burn job finished", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs,
		logging.String("category", faults.Category(result.Err)),
		logging.Error(result.Err),
	)
	if result.StderrTail != "" {
		attrs = append(attrs, logging.String("stderr_tail", result.StderrTail))
	}
	logging.ErrorWithContext(logger, "burn job failed", "job_failed", attrs...)
}
