package store

import (
	"context"
)

// IDField is the metadata field holding the document id. Sorting on it last gives hits a total order.
const IDField = "_id"

// Store executes queries against a document store.
// Implementations must be safe for concurrent use.
type Store interface {
	Search(ctx context.Context, query *Query) (*SearchResult, error)
}

// Query describes a single search request.
type Query struct {
	Index  string
	Filter Filter
	Sort   []SortField
	// Offset and Limit select the page of hits to return. A Limit of 0 returns no hits.
	Offset int
	Limit  int
	// If set, only hits sorting strictly after these values are returned, one value per Sort field.
	// Offset must be 0 when SearchAfter is set.
	SearchAfter []interface{}
	// If true, Total is exact even when it exceeds the store's default tracking limit.
	TrackTotal   bool
	Aggregations map[string]Aggregation
}

// WithWindow returns a shallow copy of q selecting hits [offset, offset+limit).
func (q *Query) WithWindow(offset, limit int) *Query {
	copied := *q
	copied.Offset = offset
	copied.Limit = limit
	return &copied
}

type SortField struct {
	Field      string
	Descending bool
}

// Document is a single hit.
type Document struct {
	Index  string                 `json:"_index"`
	ID     string                 `json:"_id"`
	Source map[string]interface{} `json:"_source"`
	// Sort values of the hit when the query is sorted. Pass them as SearchAfter to resume after this hit.
	Sort []interface{} `json:"sort,omitempty"`
}

type SearchResult struct {
	// Total number of documents matching the filter, independent of Offset and Limit.
	Total        int
	Hits         []Document
	Aggregations map[string]*AggregationResult
}

// AggregationResult holds the outcome of one aggregation.
// Metric aggregations set Value (nil if no document had the field); bucket aggregations set Buckets.
type AggregationResult struct {
	Value   *float64
	Buckets []*Bucket
}

type Bucket struct {
	Key          string
	DocCount     int64
	Aggregations map[string]*AggregationResult
}
