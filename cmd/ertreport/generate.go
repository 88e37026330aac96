package main

import (
	"github.com/spf13/cobra"

	"ertcli/internal/generator"
	"ertcli/internal/infrastructure"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one report archive from event files",
		Example: `  ertreport generate --events events/week1 --merge-by user_id --sort-by time
  ertreport generate -e session.jsonl -s weekly -f summary.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := infrastructure.EnsureTraceID(cmd.Context())
			cfg, rows, err := flags.build(ctx, cmd, opts)
			if err != nil {
				return err
			}
			writerOpts, err := flags.writerOptions(cfg, opts)
			if err != nil {
				return err
			}
			writer, err := generator.NewReportWriter(cfg, writerOpts...)
			if err != nil {
				return err
			}
			if err := writer.WriteTest(ctx); err != nil {
				return err
			}
			res, err := writer.Write(ctx, rows)
			if err != nil {
				return err
			}
			printResult(cmd, "", res)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
