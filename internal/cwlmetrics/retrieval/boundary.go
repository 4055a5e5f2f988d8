package retrieval

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

const (
	DefaultSampleSize     = 50
	DefaultTimestampField = "@timestamp"
)

// BoundarySampler returns the chronologically earliest and latest documents matching a query.
// This is an approximation for statistics that depend on the extremes of a series, e.g., elapsed time;
// it is not guaranteed to contain the series maximum of any other field.
type BoundarySampler struct {
	retriever      *WindowedRetriever
	sampleSize     int
	timestampField string
}

func NewBoundarySampler(retriever *WindowedRetriever, sampleSize int, timestampField string) *BoundarySampler {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if timestampField == "" {
		timestampField = DefaultTimestampField
	}
	return &BoundarySampler{
		retriever:      retriever,
		sampleSize:     sampleSize,
		timestampField: timestampField,
	}
}

// SampleBoundaries returns the first and last sampleSize documents matching q in ascending timestamp order.
// If at most 2*sampleSize documents match, all of them are returned, each exactly once.
func (s *BoundarySampler) SampleBoundaries(ctx context.Context, q *store.Query) ([]store.Document, error) {
	documents, err := s.retriever.RetrieveAll(ctx, q)
	if err != nil {
		return nil, err
	}
	SortByTimestamp(documents, s.timestampField)
	if len(documents) <= 2*s.sampleSize {
		return documents, nil
	}
	sampled := make([]store.Document, 0, 2*s.sampleSize)
	sampled = append(sampled, documents[:s.sampleSize]...)
	sampled = append(sampled, documents[len(documents)-s.sampleSize:]...)
	return sampled, nil
}

// SortByTimestamp stably sorts documents by ascending timestamp. Documents without a parsable timestamp sort first.
func SortByTimestamp(documents []store.Document, field string) {
	type timedDocument struct {
		document  store.Document
		timestamp time.Time
	}
	timed := make([]timedDocument, len(documents))
	unparsable := 0
	for i, doc := range documents {
		timed[i].document = doc
		if v, ok := store.Lookup(doc.Source, field); ok {
			if ts, ok := store.AsTime(v); ok {
				timed[i].timestamp = ts
				continue
			}
		}
		unparsable++
	}
	if unparsable > 0 {
		log.WithField("field", field).Debugf("%d documents have no parsable timestamp", unparsable)
	}
	slices.SortStableFunc(timed, func(a, b timedDocument) bool {
		return a.timestamp.Before(b.timestamp)
	})
	for i := range timed {
		documents[i] = timed[i].document
	}
}
