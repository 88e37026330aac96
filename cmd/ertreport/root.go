package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"ertcli/internal/config"
	"ertcli/internal/infrastructure"
	"ertcli/pkg/contracts"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ertreport",
		Short:         "Assemble event reports into CSV or XLSX archives",
		Long:          `ertreport merges, filters and sorts normalized events into a tabular report, then packages the report with its settings into a zip archive.`,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = infrastructure.WithComponent(infrastructure.NewFormatLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format), "cli")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ertcli.yaml or config.yaml in the working directory)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newBatchCmd(opts),
		newSettingsCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}
