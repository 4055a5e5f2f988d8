package cmd

import (
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwl-metrics/cwl-metrics/internal/common"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
)

const (
	defaultConfigPath = "./config/cwlmetrics"
	userConfigFile    = "~/.cwlmetrics.yaml"
)

// Config key set by each flag. Flags take precedence over env vars and config files.
var flagKeys = map[string]string{
	"esHost":        "elasticsearch.host",
	"esPort":        "elasticsearch.port",
	"input":         "input",
	"workflow":      "workflows.name",
	"since":         "workflows.since",
	"until":         "workflows.until",
	"metricsSource": "metrics.source",
	"pushgateway":   "prometheus.pushgatewayUrl",
}

func addParamsFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringSlice("config", []string{}, "Config files to merge on top of the defaults, in order. Defaults to $HOME/.cwlmetrics.yaml if it exists.")
	flags.Bool("verbose", false, "Log every store query at debug level.")
	flags.String("esHost", "", "Elasticsearch host. Overrides ES_HOST.")
	flags.Int("esPort", 0, "Elasticsearch port. Overrides ES_PORT.")
	flags.String("input", "", "Read documents from the NDJSON dumps of {_index, _id, _source} hits matching this path or glob (e.g., dumps/**/*.ndjson) instead of Elasticsearch.")
	flags.String("workflow", "", "Only report workflows with this name, e.g., KF3-sapporo.cwl.")
	flags.String("since", "", "Only report workflows started at or after this time (RFC3339 or YYYY-MM-DD).")
	flags.String("until", "", "Only report workflows started at or before this time (RFC3339 or YYYY-MM-DD).")
	flags.String("metricsSource", "", "How container metrics are computed: aggregation, sampling or combined.")
	flags.String("pushgateway", "", "Push query metrics to this Prometheus Pushgateway once the report is written.")
}

func initParams(cmd *cobra.Command, app *cwlmetrics.App) error {
	flags := cmd.Flags()
	if verbose, err := flags.GetBool("verbose"); err == nil && verbose {
		common.ConfigureVerboseLogging()
	}

	configFiles, err := flags.GetStringSlice("config")
	if err != nil {
		return errors.WithStack(err)
	}
	if len(configFiles) == 0 {
		configFiles = userConfigFiles()
	}

	_, err = common.LoadConfig(&app.Params.Config, defaultConfigPath, configFiles, func(v *viper.Viper) error {
		if err := configuration.SetDefaults(v); err != nil {
			return err
		}
		return bindFlags(v, flags)
	})
	if err != nil {
		return err
	}
	return configuration.Validate(app.Params.Config)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "error binding flag %s", name)
		}
	}
	return nil
}

// userConfigFiles returns $HOME/.cwlmetrics.yaml if it exists.
func userConfigFiles() []string {
	path, err := homedir.Expand(userConfigFile)
	if err != nil {
		log.WithError(err).Debug("could not locate home directory")
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return []string{path}
}
