package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hardsub/internal/fonts"
	"hardsub/internal/settings"
)

func newOptionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "options",
		Short:       "List the encoding options offered in the chat menu",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := settings.Defaults()
			list := newListing("Option", "Key", "Value", "Label", "")
			list.merge(1, 2)
			for i, key := range settings.Keys() {
				options, err := settings.Options(key)
				if err != nil {
					return err
				}
				if i > 0 {
					list.separator()
				}
				current, _ := defaults.Get(key)
				for _, opt := range options {
					marker := ""
					if opt.Value == current {
						marker = "default"
					}
					list.row(key.Label(), string(key), opt.Value, opt.Label, marker)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), list.render())
			return nil
		},
	}
}

func newFontsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List the font registry and whether each file exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := fonts.NewRegistry(cfg.Paths.FontsDir, cfg.Fonts)
			offered := map[string]bool{}
			if options, err := settings.Options(settings.KeyFontName); err == nil {
				for _, opt := range options {
					offered[opt.Value] = true
				}
			}
			list := newListing("Name", "Path", "Present", "In Menu")
			for _, entry := range registry.Entries() {
				_, statErr := os.Stat(entry.Path)
				list.row(entry.Name, entry.Path, yesNo(statErr == nil), yesNo(offered[entry.Name]))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fonts directory: %s\n", registry.Dir())
			fmt.Fprintln(out, list.render())
			return nil
		},
	}
}
