package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hardsub/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent burn jobs from the history ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled; set [history] enabled = true")
			}
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded yet")
				return nil
			}
			list := newListing("Started", "Job", "Video", "Outcome", "Settings", "Took")
			list.alignRight(6)
			for _, row := range historyRows(records, time.Now()) {
				list.row(row...)
			}
			fmt.Fprintln(out, list.render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to show")
	return cmd
}

func historyRows(records []history.Record, now time.Time) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		jobID := rec.JobID
		if len(jobID) > 8 {
			jobID = jobID[:8]
		}
		outcome := rec.Outcome
		if rec.ProbeDegraded {
			outcome += " (no duration)"
		}
		rows = append(rows, []string{
			humanize.RelTime(rec.StartedAt, now, "ago", "from now"),
			jobID,
			rec.VideoName,
			outcome,
			fmt.Sprintf("%s crf%s %s/%s", rec.Resolution, rec.CRF, rec.Codec, rec.Preset),
			rec.Elapsed.Round(time.Second).String(),
		})
	}
	return rows
}
