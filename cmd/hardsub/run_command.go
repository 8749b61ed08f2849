package main

import (
	"github.com/spf13/cobra"

	"hardsub/internal/botrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts botrun.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Telegram bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return botrun.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.SkipPreflight, "skip-preflight", false, "Start even when readiness checks fail")
	return cmd
}
