package aggregation

import (
	"context"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/retrieval"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// Capabilities reports which ContainerMetrics fields a MetricsSource populates.
type Capabilities struct {
	// CPUTotalPercent, MemoryMaxUsage, MemoryCache and BlkioTotalBytes.
	Maxima      bool
	ElapsedTime bool
}

// MetricsSource computes per-container resource usage.
type MetricsSource interface {
	// ContainerMetrics returns metrics keyed by container id.
	// Containers without telemetry are absent from the result.
	ContainerMetrics(ctx context.Context, containerIDs []string) (map[string]*model.ContainerMetrics, error)
	Capabilities() Capabilities
}

// New returns the MetricsSource selected by config.Metrics.Source.
func New(s store.Store, config configuration.CwlMetricsConfig) (MetricsSource, error) {
	switch config.Metrics.Source {
	case configuration.AggregationSource:
		return NewBucketedAggregator(s, config.Telemetry), nil
	case configuration.SamplingSource:
		return newSamplingSource(s, config)
	case configuration.CombinedSource, "":
		sampling, err := newSamplingSource(s, config)
		if err != nil {
			return nil, err
		}
		return NewCombinedSource(NewBucketedAggregator(s, config.Telemetry), sampling), nil
	default:
		return nil, &metricserrors.ErrInvalidArgument{
			Name:    "metrics.source",
			Value:   config.Metrics.Source,
			Message: "must be one of aggregation, sampling, combined",
		}
	}
}

func newSamplingSource(s store.Store, config configuration.CwlMetricsConfig) (*SamplingSource, error) {
	retriever := retrieval.NewWindowedRetriever(s, config.Retrieval.WindowSize)
	sampler := retrieval.NewBoundarySampler(retriever, config.Retrieval.SampleSize, config.Telemetry.TimestampField)
	return NewSamplingSource(sampler, config.Telemetry, config.Metrics.Parallelism, config.Metrics.CacheSize)
}
