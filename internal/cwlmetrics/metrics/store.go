package metrics

import (
	"context"
	"time"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// InstrumentedStore records the outcome and latency of every query made through it.
type InstrumentedStore struct {
	store   store.Store
	metrics *Metrics
}

func NewInstrumentedStore(s store.Store, metrics *Metrics) *InstrumentedStore {
	return &InstrumentedStore{
		store:   s,
		metrics: metrics,
	}
}

func (s *InstrumentedStore) Search(ctx context.Context, q *store.Query) (*store.SearchResult, error) {
	kind := queryKind(q)
	start := time.Now()
	result, err := s.store.Search(ctx, q)
	if err != nil {
		s.metrics.RecordQueryFailure(q.Index, kind)
		return nil, err
	}
	s.metrics.RecordQuery(q.Index, kind, time.Since(start), len(result.Hits))
	return result, nil
}

func queryKind(q *store.Query) QueryKind {
	switch {
	case len(q.Aggregations) > 0:
		return QueryKindAggregation
	case q.Limit == 0:
		return QueryKindCount
	default:
		return QueryKindSearch
	}
}

var _ store.Store = &InstrumentedStore{}
