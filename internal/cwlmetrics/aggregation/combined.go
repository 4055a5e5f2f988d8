package aggregation

import (
	"context"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/model"
)

// CombinedSource takes maxima from one source and elapsed time from another.
type CombinedSource struct {
	maxima  MetricsSource
	elapsed MetricsSource
}

func NewCombinedSource(maxima MetricsSource, elapsed MetricsSource) *CombinedSource {
	return &CombinedSource{
		maxima:  maxima,
		elapsed: elapsed,
	}
}

func (c *CombinedSource) Capabilities() Capabilities {
	return Capabilities{
		Maxima:      c.maxima.Capabilities().Maxima,
		ElapsedTime: c.elapsed.Capabilities().ElapsedTime,
	}
}

// ContainerMetrics queries both sources in turn. Containers known to either source are present in the result.
func (c *CombinedSource) ContainerMetrics(ctx context.Context, containerIDs []string) (map[string]*model.ContainerMetrics, error) {
	maxima, err := c.maxima.ContainerMetrics(ctx, containerIDs)
	if err != nil {
		return nil, err
	}
	elapsed, err := c.elapsed.ContainerMetrics(ctx, containerIDs)
	if err != nil {
		return nil, err
	}
	rv := make(map[string]*model.ContainerMetrics, len(maxima))
	for id, m := range maxima {
		combined := &model.ContainerMetrics{
			CPUTotalPercent: m.CPUTotalPercent,
			MemoryMaxUsage:  m.MemoryMaxUsage,
			MemoryCache:     m.MemoryCache,
			BlkioTotalBytes: m.BlkioTotalBytes,
		}
		rv[id] = combined
	}
	for id, m := range elapsed {
		if m.ElapsedTime == nil {
			continue
		}
		combined, ok := rv[id]
		if !ok {
			combined = &model.ContainerMetrics{}
			rv[id] = combined
		}
		combined.ElapsedTime = m.ElapsedTime
	}
	return rv, nil
}
