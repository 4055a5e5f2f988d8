package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-metrics/cwl-metrics/internal/common"
)

func load(t *testing.T, overrides ...string) CwlMetricsConfig {
	var config CwlMetricsConfig
	_, err := common.LoadConfig(&config, t.TempDir(), overrides, SetDefaults)
	require.NoError(t, err)
	return config
}

func TestLoad_Defaults(t *testing.T) {
	config := load(t)

	assert.Equal(t, "http://localhost:9200", config.Elasticsearch.Address())
	assert.Equal(t, uint(1), config.Elasticsearch.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, config.Elasticsearch.RetryDelay)
	assert.Equal(t, "workflow", config.Workflows.Index)
	assert.Equal(t, "telegraf", config.Telemetry.Index)
	assert.Equal(t, "@timestamp", config.Telemetry.TimestampField)
	assert.Equal(t, "docker_container_mem.max_usage", config.Telemetry.Fields.MemoryMaxUsage)
	assert.Equal(t, 5000, config.Retrieval.WindowSize)
	assert.Equal(t, 50, config.Retrieval.SampleSize)
	assert.Equal(t, CombinedSource, config.Metrics.Source)
	assert.True(t, config.Workflows.Since.IsZero())
	assert.NoError(t, Validate(config))
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("ES_HOST", "es.example.org")
	t.Setenv("ES_PORT", "9201")
	t.Setenv("RETRIEVAL_WINDOWSIZE", "100")

	config := load(t)

	assert.Equal(t, "http://es.example.org:9201", config.Elasticsearch.Address())
	assert.Equal(t, 100, config.Retrieval.WindowSize)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	err := os.WriteFile(path, []byte(`
elasticsearch:
  host: metrics
workflows:
  name: " KF3-sapporo.cwl "
  since: "2023-04-01"
  until: "2023-04-02T12:00:00Z"
metrics:
  source: sampling
`), 0o644)
	require.NoError(t, err)

	config := load(t, path)

	assert.Equal(t, "http://metrics:9200", config.Elasticsearch.Address())
	assert.Equal(t, "KF3-sapporo.cwl", config.Workflows.Name)
	assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), config.Workflows.Since)
	assert.Equal(t, time.Date(2023, 4, 2, 12, 0, 0, 0, time.UTC), config.Workflows.Until.UTC())
	assert.Equal(t, SamplingSource, config.Metrics.Source)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(c *CwlMetricsConfig)
		valid  bool
	}{
		"defaults": {
			mutate: func(c *CwlMetricsConfig) {},
			valid:  true,
		},
		"window at result window cap": {
			mutate: func(c *CwlMetricsConfig) { c.Retrieval.WindowSize = 10000 },
			valid:  true,
		},
		"window above result window cap": {
			mutate: func(c *CwlMetricsConfig) { c.Retrieval.WindowSize = 10001 },
		},
		"zero window": {
			mutate: func(c *CwlMetricsConfig) { c.Retrieval.WindowSize = 0 },
		},
		"unknown metrics source": {
			mutate: func(c *CwlMetricsConfig) { c.Metrics.Source = "telepathy" },
		},
		"missing host": {
			mutate: func(c *CwlMetricsConfig) { c.Elasticsearch.Host = "" },
		},
		"port out of range": {
			mutate: func(c *CwlMetricsConfig) { c.Elasticsearch.Port = 70000 },
		},
		"no attempts": {
			mutate: func(c *CwlMetricsConfig) { c.Elasticsearch.MaxAttempts = 0 },
		},
		"negative retry delay": {
			mutate: func(c *CwlMetricsConfig) { c.Elasticsearch.RetryDelay = -time.Second },
		},
		"malformed pushgateway url": {
			mutate: func(c *CwlMetricsConfig) { c.Prometheus.PushgatewayUrl = "not a url" },
		},
		"pushgateway url": {
			mutate: func(c *CwlMetricsConfig) { c.Prometheus.PushgatewayUrl = "http://pushgateway:9091" },
			valid:  true,
		},
		"until before since": {
			mutate: func(c *CwlMetricsConfig) {
				c.Workflows.Since = time.Date(2023, 4, 2, 0, 0, 0, 0, time.UTC)
				c.Workflows.Until = time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			config := load(t)
			tc.mutate(&config)
			err := Validate(config)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
