package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cwl-metrics/cwl-metrics/internal/common/app"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics"
)

func jsonCmd(a *cwlmetrics.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: `Print the report as a {"metrics": [...]} JSON document.`,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.CreateContextWithShutdown()
			defer stop()
			return a.Json(ctx)
		},
	}
	return cmd
}

func yamlCmd(a *cwlmetrics.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yaml",
		Short: "Print the report as a YAML document with the same structure as json.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.CreateContextWithShutdown()
			defer stop()
			return a.Yaml(ctx)
		},
	}
	return cmd
}

func tsvCmd(a *cwlmetrics.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsv",
		Short: "Print the report as a header line followed by one tab-separated row per workflow step.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := app.CreateContextWithShutdown()
			defer stop()
			return a.Tsv(ctx)
		},
	}
	return cmd
}
