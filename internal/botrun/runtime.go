package botrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hardsub/internal/api"
	"hardsub/internal/assets"
	"hardsub/internal/chat"
	"hardsub/internal/config"
	"hardsub/internal/deps"
	"hardsub/internal/fonts"
	"hardsub/internal/history"
	"hardsub/internal/logging"
	"hardsub/internal/media/ffprobe"
	"hardsub/internal/notifications"
	"hardsub/internal/session"
	"hardsub/internal/transcode"
)

// Runtime is the assembled set of long-lived components.
type Runtime struct {
	Store      *assets.Store
	Supervisor *transcode.Supervisor
	Manager    *session.Manager
	// History is nil unless history.enabled is set.
	History  *history.Store
	Notifier notifications.Service
	// API is nil unless api.bind is set.
	API *api.Server

	observers []session.JobObserver
}

// AssembleOption customizes Assemble.
type AssembleOption func(*assembleOptions)

type assembleOptions struct {
	runner         transcode.Runner
	supervisorOpts []transcode.Option
}

// WithProcessRunner replaces the ffmpeg process runner.
func WithProcessRunner(runner transcode.Runner) AssembleOption {
	return func(o *assembleOptions) { o.runner = runner }
}

// WithSupervisorOptions appends options to the burn supervisor.
func WithSupervisorOptions(opts ...transcode.Option) AssembleOption {
	return func(o *assembleOptions) { o.supervisorOpts = append(o.supervisorOpts, opts...) }
}

// Assemble builds the runtime around transport. Nothing is started: the API
// listens only after Start and updates are polled by the caller.
func Assemble(cfg *config.Config, transport chat.Transport, logger *slog.Logger, opts ...AssembleOption) (*Runtime, error) {
	if cfg == nil || transport == nil {
		return nil, errors.New("runtime requires config and transport")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	options := assembleOptions{runner: transcode.ExecRunner{TailChars: cfg.FFmpeg.StderrTailChars}}
	for _, opt := range opts {
		opt(&options)
	}

	rt := &Runtime{Store: assets.NewStore(cfg.Paths.ScratchDir, logger)}

	registry := fonts.NewRegistry(cfg.Paths.FontsDir, cfg.Fonts)
	prober := ffprobe.NewProber(cfg.FFmpeg.FFprobeBinary, cfg.ProbeTimeout())
	supervisorOpts := append([]transcode.Option{transcode.WithRunner(options.runner)}, options.supervisorOpts...)
	rt.Supervisor = transcode.NewSupervisor(cfg.FFmpeg.FFmpegBinary, registry, prober, rt.Store, logger, supervisorOpts...)

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.History = store
		rt.observers = append(rt.observers, history.NewRecorder(store, cfg.History.Keep, logger))
	}

	rt.Notifier = notifications.NewService(cfg)
	if notifications.Enabled(rt.Notifier) {
		rt.observers = append(rt.observers, notifications.NewObserver(rt.Notifier, cfg.Notifications, logger))
	}

	rt.Manager = session.NewManager(transport, rt.Store, rt.Supervisor, logger,
		session.WithIdleTimeout(cfg.IdleTimeout()),
		session.WithObservers(rt.observers...),
	)

	if cfg.API.Bind != "" {
		apiOpts := []api.Option{
			api.WithToken(cfg.API.Token),
			api.WithDependencies(func(ctx context.Context) deps.Toolchain {
				return deps.Inspect(ctx, cfg.FFmpeg.FFmpegBinary, cfg.FFmpeg.FFprobeBinary)
			}),
		}
		if rt.History != nil {
			apiOpts = append(apiOpts, api.WithHistory(rt.History))
		}
		rt.API = api.NewServer(cfg.API.Bind, rt.Manager, logger, apiOpts...)
	}
	return rt, nil
}

// Start launches the components that serve on their own.
func (rt *Runtime) Start(ctx context.Context) error {
	if rt.API != nil {
		if err := rt.API.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the session manager first so running jobs tear down their
// session directories and reach the observers, then releases the rest.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Manager != nil {
		if err := rt.Manager.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close sessions: %w", err))
		}
	}
	if rt.API != nil {
		rt.API.Stop()
	}
	if rt.History != nil {
		if err := rt.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	return errors.Join(errs...)
}
