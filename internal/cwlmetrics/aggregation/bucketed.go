package aggregation

import (
	"context"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cwl-metrics/cwl-metrics/internal/common/slices"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

const (
	// Counts up to this many containers are exact in Elasticsearch; 40000 is the maximum it accepts.
	cardinalityPrecisionThreshold = 40000
	// Container ids per aggregation, keeping both the terms filter and the bucket count within Elasticsearch limits.
	maxContainersPerAggregation = 10000

	containerCountAggregation  = "container_count"
	perContainerAggregation    = "per_container"
	cpuTotalPercentAggregation = "cpu_total_percent"
	memoryMaxUsageAggregation  = "memory_max_usage"
	memoryCacheAggregation     = "memory_cache"
	blkioTotalBytesAggregation = "blkio_total_bytes"
)

// BucketedAggregator computes per-container maxima inside the store.
// The number of containers is counted first so that the terms aggregation can request exactly one bucket each.
type BucketedAggregator struct {
	store     store.Store
	telemetry configuration.TelemetryConfig
}

func NewBucketedAggregator(s store.Store, telemetry configuration.TelemetryConfig) *BucketedAggregator {
	return &BucketedAggregator{
		store:     s,
		telemetry: telemetry,
	}
}

func (a *BucketedAggregator) Capabilities() Capabilities {
	return Capabilities{Maxima: true}
}

// ContainerMetrics aggregates the telemetry of the given containers, or of every container if none are given.
func (a *BucketedAggregator) ContainerMetrics(ctx context.Context, containerIDs []string) (map[string]*model.ContainerMetrics, error) {
	if len(containerIDs) == 0 {
		return a.AggregatePerKey(ctx, store.MatchAll())
	}
	rv := make(map[string]*model.ContainerMetrics, len(containerIDs))
	for _, batch := range slices.Batch(slices.Unique(containerIDs), maxContainersPerAggregation) {
		metrics, err := a.AggregatePerKey(ctx, store.Terms(a.telemetry.ContainerIdField, batch...))
		if err != nil {
			return nil, err
		}
		for id, m := range metrics {
			rv[id] = m
		}
	}
	return rv, nil
}

// AggregatePerKey returns the maxima of every telemetry field for each container matching base.
// It issues a cardinality probe followed by one terms aggregation; if the probe counts no containers,
// the second query is skipped.
func (a *BucketedAggregator) AggregatePerKey(ctx context.Context, base store.Filter) (map[string]*model.ContainerMetrics, error) {
	logger := log.WithField("index", a.telemetry.Index)

	probe, err := a.store.Search(ctx, &store.Query{
		Index:  a.telemetry.Index,
		Filter: store.And(base, store.Term(a.telemetry.MeasurementField, a.telemetry.ProbeMeasurement)),
		Aggregations: map[string]store.Aggregation{
			containerCountAggregation: store.CardinalityAggregation{
				Field:              a.telemetry.ContainerIdField,
				PrecisionThreshold: cardinalityPrecisionThreshold,
			},
		},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "error counting containers")
	}
	bucketCount := 0
	if count := probe.Aggregations[containerCountAggregation]; count != nil && count.Value != nil {
		bucketCount = int(math.Round(*count.Value))
	}
	logger.Debugf("aggregating telemetry of %d containers", bucketCount)
	if bucketCount == 0 {
		return map[string]*model.ContainerMetrics{}, nil
	}

	fields := a.telemetry.Fields
	result, err := a.store.Search(ctx, &store.Query{
		Index:  a.telemetry.Index,
		Filter: base,
		Aggregations: map[string]store.Aggregation{
			perContainerAggregation: store.TermsAggregation{
				Field: a.telemetry.ContainerIdField,
				Size:  bucketCount,
				Aggregations: map[string]store.Aggregation{
					cpuTotalPercentAggregation: store.MaxAggregation{Field: fields.CpuTotalPercent},
					memoryMaxUsageAggregation:  store.MaxAggregation{Field: fields.MemoryMaxUsage},
					memoryCacheAggregation:     store.MaxAggregation{Field: fields.MemoryCache},
					blkioTotalBytesAggregation: store.MaxAggregation{Field: fields.BlkioTotalBytes},
				},
			},
		},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "error aggregating container telemetry")
	}

	perContainer := result.Aggregations[perContainerAggregation]
	if perContainer == nil {
		return map[string]*model.ContainerMetrics{}, nil
	}
	rv := make(map[string]*model.ContainerMetrics, len(perContainer.Buckets))
	for _, bucket := range perContainer.Buckets {
		rv[bucket.Key] = &model.ContainerMetrics{
			CPUTotalPercent: maxValue(bucket, cpuTotalPercentAggregation),
			MemoryMaxUsage:  roundedMaxValue(bucket, memoryMaxUsageAggregation),
			MemoryCache:     roundedMaxValue(bucket, memoryCacheAggregation),
			BlkioTotalBytes: roundedMaxValue(bucket, blkioTotalBytesAggregation),
		}
	}
	if len(rv) < bucketCount {
		logger.Debugf("probe counted %d containers but %d had telemetry", bucketCount, len(rv))
	}
	return rv, nil
}

func maxValue(bucket *store.Bucket, name string) *float64 {
	agg := bucket.Aggregations[name]
	if agg == nil || agg.Value == nil {
		return nil
	}
	v := *agg.Value
	return &v
}

func roundedMaxValue(bucket *store.Bucket, name string) *int64 {
	v := maxValue(bucket, name)
	if v == nil {
		return nil
	}
	rounded := int64(math.Round(*v))
	return &rounded
}
