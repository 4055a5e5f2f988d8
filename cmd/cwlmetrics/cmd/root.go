package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmd(cwlmetrics.New())
}

func rootCmd(app *cwlmetrics.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cwlmetrics",
		Short: "cwlmetrics reports the resource usage of CWL workflow runs recorded in Elasticsearch.",
		Long: `cwlmetrics reports the resource usage of CWL workflow runs recorded in Elasticsearch.

Workflow documents are joined with the telemetry of the containers that ran their steps.
The Elasticsearch node is read from ES_HOST and ES_PORT (default localhost:9200) unless
--esHost or --esPort is given.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
elasticsearch:
  host: metrics.example.org
  port: 9200
metrics:
  source: combined

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.cwlmetrics.yaml is used.`,
		SilenceUsage: true,
	}

	addParamsFlags(cmd)

	cmd.AddCommand(
		jsonCmd(app),
		yamlCmd(app),
		tsvCmd(app),
		versionCmd(app),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *cwlmetrics.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}
