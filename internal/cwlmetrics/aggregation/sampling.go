package aggregation

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwl-metrics/cwl-metrics/internal/common/slices"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/configuration"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/retrieval"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// SamplingSource reduces the boundary samples of each container's telemetry series client-side.
// Maxima are taken over the samples only, so they may underestimate the true series maxima.
type SamplingSource struct {
	sampler     *retrieval.BoundarySampler
	telemetry   configuration.TelemetryConfig
	parallelism int
	// Nil if caching is disabled.
	cache *lru.Cache
}

func NewSamplingSource(
	sampler *retrieval.BoundarySampler,
	telemetry configuration.TelemetryConfig,
	parallelism int,
	cacheSize int,
) (*SamplingSource, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	s := &SamplingSource{
		sampler:     sampler,
		telemetry:   telemetry,
		parallelism: parallelism,
	}
	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		s.cache = cache
	}
	return s, nil
}

func (s *SamplingSource) Capabilities() Capabilities {
	return Capabilities{Maxima: true, ElapsedTime: true}
}

// ContainerMetrics samples each container independently, at most parallelism at a time.
// If any container fails, no metrics are returned.
func (s *SamplingSource) ContainerMetrics(ctx context.Context, containerIDs []string) (map[string]*model.ContainerMetrics, error) {
	ids := slices.Unique(containerIDs)
	results := make([]*model.ContainerMetrics, len(ids))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			metrics, err := s.containerMetrics(groupCtx, id)
			if err != nil {
				return errors.WithMessagef(err, "error sampling telemetry of container %s", id)
			}
			results[i] = metrics
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rv := make(map[string]*model.ContainerMetrics, len(ids))
	for i, id := range ids {
		if results[i] != nil {
			rv[id] = results[i]
		}
	}
	return rv, nil
}

func (s *SamplingSource) containerMetrics(ctx context.Context, id string) (*model.ContainerMetrics, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(id); ok {
			return cached.(*model.ContainerMetrics), nil
		}
	}
	samples, err := s.sampler.SampleBoundaries(ctx, &store.Query{
		Index:  s.telemetry.Index,
		Filter: store.Term(s.telemetry.ContainerIdField, id),
		// Samples often share a timestamp; the id orders them consistently across windows.
		Sort: []store.SortField{{Field: s.telemetry.TimestampField}, {Field: store.IDField}},
	})
	if err != nil {
		return nil, err
	}
	log.WithField("container", id).Debugf("reducing %d telemetry samples", len(samples))
	metrics := Reduce(samples, s.telemetry)
	if s.cache != nil {
		s.cache.Add(id, metrics)
	}
	return metrics, nil
}

// Reduce summarises telemetry samples of a single container.
// Each metric is the maximum over the samples carrying it. ElapsedTime is the span between the earliest
// and latest sample timestamps, and is nil unless at least two distinct timestamps were seen.
// Reduce returns nil if there are no samples.
func Reduce(samples []store.Document, telemetry configuration.TelemetryConfig) *model.ContainerMetrics {
	if len(samples) == 0 {
		return nil
	}
	metrics := &model.ContainerMetrics{}
	var first, last time.Time
	for _, sample := range samples {
		source := sample.Source
		metrics.CPUTotalPercent = maxFloat(metrics.CPUTotalPercent, source, telemetry.Fields.CpuTotalPercent)
		metrics.MemoryMaxUsage = maxInt(metrics.MemoryMaxUsage, source, telemetry.Fields.MemoryMaxUsage)
		metrics.MemoryCache = maxInt(metrics.MemoryCache, source, telemetry.Fields.MemoryCache)
		metrics.BlkioTotalBytes = maxInt(metrics.BlkioTotalBytes, source, telemetry.Fields.BlkioTotalBytes)

		v, ok := store.Lookup(source, telemetry.TimestampField)
		if !ok {
			continue
		}
		ts, ok := store.AsTime(v)
		if !ok {
			continue
		}
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if last.IsZero() || ts.After(last) {
			last = ts
		}
	}
	if last.After(first) {
		elapsed := last.Sub(first).Seconds()
		metrics.ElapsedTime = &elapsed
	}
	return metrics
}

func maxFloat(current *float64, source map[string]interface{}, field string) *float64 {
	v, ok := store.Lookup(source, field)
	if !ok {
		return current
	}
	f, ok := store.AsFloat(v)
	if !ok || (current != nil && *current >= f) {
		return current
	}
	return &f
}

func maxInt(current *int64, source map[string]interface{}, field string) *int64 {
	v, ok := store.Lookup(source, field)
	if !ok {
		return current
	}
	i, ok := store.AsInt(v)
	if !ok || (current != nil && *current >= i) {
		return current
	}
	return &i
}
