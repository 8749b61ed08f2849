package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hardsub/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report readiness of directories, fonts, ffmpeg and the bot token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			results := preflight.RunAll(cmd.Context(), cfg)
			if !offline {
				results = append(results, preflight.CheckTelegram(cmd.Context(), cfg.Telegram.APIEndpoint, cfg.Telegram.Token))
			}

			report := newStatusReport("hardsub readiness", isTerminal(out))
			report.add("Config", statusInfo, ctx.configPath)
			for _, r := range results {
				report.addResult(r)
			}
			fmt.Fprintln(out, report)

			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New(pluralChecks(len(failed)) + " failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Telegram token check")
	return cmd
}

func pluralChecks(n int) string {
	if n == 1 {
		return "1 check"
	}
	return fmt.Sprintf("%d checks", n)
}
