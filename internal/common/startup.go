package common

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	commonconfig "github.com/cwl-metrics/cwl-metrics/internal/common/config"
	"github.com/cwl-metrics/cwl-metrics/internal/common/logging"
)

// LoadConfig reads config.yaml from defaultPath (if present) and merges every file in overrideConfigs on top.
// Environment variables take precedence over file values; keys are matched with "." replaced by "_".
// If configure is non-nil it is called first, so that callers can register defaults, env aliases and flags.
// The result is decoded into config using the shared decode hooks.
func LoadConfig(config interface{}, defaultPath string, overrideConfigs []string, configure func(v *viper.Viper) error) (*viper.Viper, error) {
	v := viper.New()
	if configure != nil {
		if err := configure(v); err != nil {
			return nil, err
		}
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "error reading config from %s", defaultPath)
		}
		log.Debugf("no default config found in %s", defaultPath)
	}

	for _, overrideConfig := range overrideConfigs {
		v.SetConfigFile(overrideConfig)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config from %s", overrideConfig)
		}
		log.Debugf("read config from %s", v.ConfigFileUsed())
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return nil, errors.Wrap(err, "error decoding config")
	}
	return v, nil
}

// ConfigureCommandLineLogging sets up logging for command line tools.
// Log output goes to stderr so that stdout only carries the report.
func ConfigureCommandLineLogging() {
	commandLineFormatter := new(logging.CommandLineFormatter)
	log.SetFormatter(commandLineFormatter)
	log.SetOutput(os.Stderr)
}

// ConfigureVerboseLogging switches to timestamped, levelled output at debug level.
func ConfigureVerboseLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.DebugLevel)
}
