package retrieval

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

// DefaultWindowSize is the number of hits requested per query.
// It must stay below the store's result window cap (10000 for Elasticsearch).
const DefaultWindowSize = 5000

// WindowedRetriever retrieves every document matching a query by issuing one bounded query per window.
// Windows are read with a search_after cursor, so every request starts at offset 0 and the result
// window cap bounds only the window size, never the number of documents retrieved.
type WindowedRetriever struct {
	store      store.Store
	windowSize int
}

func NewWindowedRetriever(s store.Store, windowSize int) *WindowedRetriever {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &WindowedRetriever{
		store:      s,
		windowSize: windowSize,
	}
}

// RetrieveAll returns every document matching q, concatenated in window order.
// Documents are ordered by q's sort followed by document id. The offset, limit and aggregations of q are ignored.
// If any query fails, no documents are returned.
func (r *WindowedRetriever) RetrieveAll(ctx context.Context, q *store.Query) ([]store.Document, error) {
	base := *q
	base.Aggregations = nil
	base.TrackTotal = true
	base.SearchAfter = nil
	base.Sort = withTieBreaker(q.Sort)

	countResult, err := r.store.Search(ctx, base.WithWindow(0, 0))
	if err != nil {
		return nil, errors.WithMessagef(err, "error counting documents in index %s", q.Index)
	}
	total := countResult.Total
	logger := log.WithField("index", q.Index)
	logger.Debugf("%d documents match", total)
	if total == 0 {
		return []store.Document{}, nil
	}

	documents := make([]store.Document, 0, total)
	var cursor []interface{}
	for window := 0; len(documents) < total; window++ {
		limit := r.windowSize
		if remaining := total - len(documents); remaining < limit {
			limit = remaining
		}
		page := base.WithWindow(0, limit)
		page.SearchAfter = cursor
		result, err := r.store.Search(ctx, page)
		if err != nil {
			return nil, errors.WithMessagef(err, "error retrieving window %d (documents [%d, %d)) from index %s",
				window, len(documents), len(documents)+limit, q.Index)
		}
		logger.WithField("window", window).Debugf("retrieved %d documents", len(result.Hits))
		documents = append(documents, result.Hits...)
		if len(result.Hits) < limit {
			logger.Warnf("expected %d documents but only %d remain", total, len(documents))
			break
		}
		cursor = result.Hits[len(result.Hits)-1].Sort
		if len(cursor) == 0 {
			return nil, errors.Errorf("index %s returned hits without sort values", q.Index)
		}
	}
	return documents, nil
}

// withTieBreaker appends the document id to sort unless it is already the last sort field.
// search_after needs a total order to neither skip nor repeat documents with equal sort values.
func withTieBreaker(sort []store.SortField) []store.SortField {
	if len(sort) > 0 && sort[len(sort)-1].Field == store.IDField {
		return sort
	}
	rv := make([]store.SortField, 0, len(sort)+1)
	rv = append(rv, sort...)
	return append(rv, store.SortField{Field: store.IDField})
}
