package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ertcli/internal/report"
	"ertcli/internal/settings"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect saved report settings",
	}
	cmd.AddCommand(newSettingsShowCmd(opts), newSettingsListCmd(opts))
	return cmd
}

func newSettingsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file-or-name>",
		Short: "Print a settings file, or a report archive's settings, as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := report.NewConfiguration(opts.cfg.Report.FileName)
			var err error
			if info, statErr := os.Stat(args[0]); statErr == nil && !info.IsDir() {
				err = settings.Load(args[0], cfg, opts.logger)
			} else {
				err = settings.NewStore(opts.cfg.Report.SettingsDir, opts.logger).Load(args[0], cfg)
			}
			if err != nil {
				return err
			}
			spec, err := settings.ToSpec(cfg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(spec)
		},
	}
}

func newSettingsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List settings saved in the settings directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := settings.NewStore(opts.cfg.Report.SettingsDir, opts.logger).List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
