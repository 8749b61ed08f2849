package preflight

import (
	"context"

	"hardsub/internal/config"
	"hardsub/internal/fonts"
)

// Result reports the outcome of a single preflight check. Warning results
// pass but deserve operator attention.
type Result struct {
	Name    string
	Passed  bool
	Warning bool
	Detail  string
}

// RunAll executes the local readiness checks for the given config. The
// Telegram check is separate because it needs network access.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))
	results = append(results, CheckFreeSpace(ctx, "Scratch free space", cfg.Paths.ScratchDir, cfg.Preflight.MinFreeGiB))
	results = append(results, CheckFonts(fonts.NewRegistry(cfg.Paths.FontsDir, cfg.Fonts))...)
	results = append(results, CheckToolchain(ctx, cfg)...)
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
