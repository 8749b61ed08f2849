package botrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"hardsub/internal/config"
	"hardsub/internal/logging"
	"hardsub/internal/preflight"
	"hardsub/internal/telegram"
)

// shutdownTimeout bounds how long running jobs get to clean up after a
// signal. Their ffmpeg processes are killed immediately; this covers the
// final chat messages and directory removal.
const shutdownTimeout = 30 * time.Second

// Options configures bot process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	// SkipPreflight starts polling even when readiness checks fail.
	SkipPreflight bool
}

// Run starts the bot and blocks until SIGINT/SIGTERM or cmdCtx is cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	logger, logPath, err := logging.NewFromConfig(&logCfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", runID))

	unlock, err := acquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Warn("failed to release bot lock", logging.Error(err))
		}
	}()

	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	if err := checkReadiness(signalCtx, cfg, logger, opts.SkipPreflight); err != nil {
		return err
	}

	bot, err := telegram.New(telegram.OptionsFromConfig(cfg), logger)
	if err != nil {
		return err
	}

	rt, err := Assemble(cfg, bot, logger)
	if err != nil {
		return err
	}
	rt.Store.Sweep()
	if err := rt.Start(signalCtx); err != nil {
		_ = rt.Close(context.Background())
		return err
	}

	logger.Info("hardsub bot started",
		logging.String(logging.FieldEventType, "bot_started"),
		logging.String("username", bot.Username()),
		logging.String("scratch_dir", cfg.Paths.ScratchDir),
		logging.String("log_path", logPath),
		logging.Bool("history_enabled", rt.History != nil),
		logging.Bool("api_enabled", rt.API != nil),
		logging.Int("pid", os.Getpid()),
	)

	pollErr := bot.Poll(signalCtx, rt.Manager)

	logger.Info("hardsub bot shutting down", logging.String(logging.FieldEventType, "bot_stopping"))
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	closeErr := rt.Close(closeCtx)
	if closeErr != nil {
		logging.ErrorWithContext(logger, "shutdown incomplete", "bot_shutdown_failed",
			logging.Error(closeErr),
			logging.String(logging.FieldErrorHint, "leftover session directories are removed at the next start"),
		)
	}
	return errors.Join(pollErr, closeErr)
}

func checkReadiness(ctx context.Context, cfg *config.Config, logger *slog.Logger, skip bool) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		attrs := []logging.Attr{
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
		}
		switch {
		case !r.Passed:
			logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed", attrs...)
		case r.Warning:
			logging.WarnWithContext(logger, "preflight check warning", "preflight_warning", append(attrs,
				logging.String(logging.FieldImpact, "jobs run with reduced functionality"))...)
		default:
			logger.Debug("preflight check passed", logging.Args(attrs...)...)
		}
	}
	failed := preflight.Failed(results)
	if len(failed) == 0 || skip {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	return fmt.Errorf("preflight failed: %s (run 'hardsub check' for details)", strings.Join(names, ", "))
}
