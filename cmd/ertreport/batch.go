package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ertcli/internal/generator"
	"ertcli/internal/infrastructure"
	"ertcli/internal/operations"
	"ertcli/internal/report"
)

func newBatchCmd(opts *rootOptions) *cobra.Command {
	flags := &reportFlags{}
	var (
		groupBy      string
		concurrency  int
		pollInterval time.Duration
	)
	cmd := &cobra.Command{
		Use:     "batch",
		Short:   "Generate one report archive per value of a column",
		Example: `  ertreport batch --events events/ --group-by user_id --concurrency 4`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := infrastructure.EnsureTraceID(cmd.Context())
			cfg, rows, err := flags.build(ctx, cmd, opts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("poll-interval") {
				pollInterval = opts.cfg.Jobs.PollInterval
			}
			items, err := operations.PlanBatch(cfg, rows, groupBy, func(itemCfg *report.Configuration) (operations.Runner, error) {
				writerOpts, err := flags.writerOptions(itemCfg, opts)
				if err != nil {
					return nil, err
				}
				writer, err := generator.NewReportWriter(itemCfg, writerOpts...)
				if err != nil {
					return nil, err
				}
				return writer, nil
			})
			if err != nil {
				return err
			}

			results, err := operations.RunBatch(ctx, items, operations.BatchOptions{
				Concurrency:  concurrency,
				PollInterval: pollInterval,
				Logger:       opts.logger,
			})
			for _, r := range results {
				if r.Result != nil {
					printResult(cmd, r.Name, r.Result)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %s\n", r.Name, r.Error)
				}
			}
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&groupBy, "group-by", "user_id", "column whose values split the events into reports")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "reports generated at the same time")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", operations.DefaultPollInterval, "how often batch progress is logged")
	return cmd
}
