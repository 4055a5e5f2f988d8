package configuration

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	commonconfig "github.com/cwl-metrics/cwl-metrics/internal/common/config"
)

// Defaults applied before any config file, env var or flag.
var defaults = map[string]interface{}{
	"elasticsearch.scheme": "http",
	"elasticsearch.host":   "localhost",
	"elasticsearch.port":   9200,

	"elasticsearch.maxAttempts": 1,
	"elasticsearch.retryDelay":  "500ms",

	"workflows.index": "workflow",

	"telemetry.index":                  "telegraf",
	"telemetry.containerIdField":       "container_id",
	"telemetry.timestampField":         "@timestamp",
	"telemetry.measurementField":       "measurement_name",
	"telemetry.probeMeasurement":       "docker_container_cpu",
	"telemetry.fields.cpuTotalPercent": "docker_container_cpu.usage_percent",
	"telemetry.fields.memoryMaxUsage":  "docker_container_mem.max_usage",
	"telemetry.fields.memoryCache":     "docker_container_mem.cache",
	"telemetry.fields.blkioTotalBytes": "docker_container_blkio.io_service_bytes_recursive_total",

	"retrieval.windowSize": 5000,
	"retrieval.sampleSize": 50,

	"metrics.source":      string(CombinedSource),
	"metrics.parallelism": 1,
	"metrics.cacheSize":   4096,

	"prometheus.job": "cwlmetrics",
}

// Environment variables read in addition to the ones derived from config keys.
var envAliases = map[string]string{
	"elasticsearch.host": "ES_HOST",
	"elasticsearch.port": "ES_PORT",
}

// SetDefaults registers the default configuration and the ES_HOST/ES_PORT env aliases on v.
func SetDefaults(v *viper.Viper) error {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return errors.Wrapf(err, "error binding %s to %s", env, key)
		}
	}
	return nil
}

// Validate checks every field of config against its validate tag and the cross-field constraints.
func Validate(config CwlMetricsConfig) error {
	if err := commonconfig.Validate(config); err != nil {
		return errors.WithMessage(err, "invalid config")
	}
	since, until := config.Workflows.Since, config.Workflows.Until
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return errors.Errorf("invalid config: workflows.until (%s) is before workflows.since (%s)", until, since)
	}
	return nil
}
