package configuration

import (
	"fmt"
	"time"
)

type MetricsSourceType string

const (
	// Maxima only, computed by the store in two aggregation queries.
	AggregationSource MetricsSourceType = "aggregation"
	// Maxima and elapsed time, reduced client-side from the first and last samples of each container.
	SamplingSource MetricsSourceType = "sampling"
	// Maxima from aggregation, elapsed time from sampling.
	CombinedSource MetricsSourceType = "combined"
)

type CwlMetricsConfig struct {
	Elasticsearch ElasticsearchConfig
	// If set, documents are read from the NDJSON dumps matching this glob, e.g., "dumps/**/*.ndjson",
	// instead of Elasticsearch.
	Input      string
	Workflows  WorkflowsConfig
	Telemetry  TelemetryConfig
	Retrieval  RetrievalConfig
	Metrics    MetricsConfig
	Prometheus PrometheusConfig
}

type ElasticsearchConfig struct {
	Scheme string `validate:"oneof=http https"`
	Host   string `validate:"required"`
	Port   int    `validate:"gt=0,lte=65535"`
	// Attempts made for each query. Only failures without a response, 429s and 5xxs are retried.
	// The default of 1 surfaces every failure immediately.
	MaxAttempts uint          `validate:"gte=1"`
	RetryDelay  time.Duration `validate:"gte=0"`
}

// Address returns the base url of the Elasticsearch node.
func (c ElasticsearchConfig) Address() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

type WorkflowsConfig struct {
	Index string `validate:"required"`
	// Only report workflows whose name matches exactly.
	Name string
	// Only report workflows started in [Since, Until]. Zero values leave the range open.
	Since time.Time
	Until time.Time
}

// TelemetryConfig names the index and fields holding container telemetry.
type TelemetryConfig struct {
	Index            string `validate:"required"`
	ContainerIdField string `validate:"required"`
	TimestampField   string `validate:"required"`
	MeasurementField string `validate:"required"`
	// Every running container reports this measurement, so it is used to count containers.
	ProbeMeasurement string `validate:"required"`
	Fields           TelemetryFields
}

type TelemetryFields struct {
	CpuTotalPercent string `validate:"required"`
	MemoryMaxUsage  string `validate:"required"`
	MemoryCache     string `validate:"required"`
	BlkioTotalBytes string `validate:"required"`
}

type RetrievalConfig struct {
	// Hits requested per query. Elasticsearch rejects windows above its max_result_window.
	WindowSize int `validate:"gt=0,lte=10000"`
	// Number of samples taken from each end of a telemetry series.
	SampleSize int `validate:"gt=0"`
}

type MetricsConfig struct {
	Source MetricsSourceType `validate:"oneof=aggregation sampling combined"`
	// Maximum number of containers sampled concurrently.
	Parallelism int `validate:"gte=1"`
	// Number of sampled containers kept in memory. 0 disables caching.
	CacheSize int `validate:"gte=0"`
}

type PrometheusConfig struct {
	// Pushgateway to push query metrics to once the report is written. Empty disables pushing.
	PushgatewayUrl string `validate:"omitempty,url"`
	Job            string `validate:"required"`
}
