package store

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
)

// DefaultMaxResultWindow mirrors the index.max_result_window default of Elasticsearch.
const DefaultMaxResultWindow = 10000

// MemoryStore evaluates queries against documents held in memory.
// Queries whose offset+limit exceed MaxResultWindow are rejected, as Elasticsearch does.
type MemoryStore struct {
	MaxResultWindow int

	mu        sync.Mutex
	documents map[string][]Document
	queries   []Query
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		MaxResultWindow: DefaultMaxResultWindow,
		documents:       make(map[string][]Document),
	}
}

// Add stores documents under index, overwriting their Index field.
func (s *MemoryStore) Add(index string, documents ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range documents {
		doc.Index = index
		s.documents[index] = append(s.documents[index], doc)
	}
}

// LoadNDJSON reads one hit per line in the {"_index", "_id", "_source"} format produced by Elasticsearch
// export tools. Blank lines are skipped.
func (s *MemoryStore) LoadNDJSON(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	n := 0
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var doc Document
		if err := unmarshalUseNumber(raw, &doc); err != nil {
			return n, errors.Wrapf(err, "error parsing line %d", line)
		}
		if doc.Index == "" {
			return n, errors.Errorf("line %d has no _index", line)
		}
		doc.Source, _ = normaliseNumbers(doc.Source).(map[string]interface{})
		s.Add(doc.Index, doc)
		n++
	}
	return n, errors.Wrap(scanner.Err(), "error reading documents")
}

// Queries returns every query executed so far, in order.
func (s *MemoryStore) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queries)
}

func (s *MemoryStore) Search(ctx context.Context, q *Query) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &metricserrors.ErrTransport{Index: q.Index, Cause: err}
	}
	s.mu.Lock()
	s.queries = append(s.queries, *q)
	documents := s.documents[q.Index]
	s.mu.Unlock()

	if q.Offset < 0 || q.Limit < 0 {
		return nil, &metricserrors.ErrTransport{Index: q.Index, StatusCode: 400, Message: "offset and limit must be non-negative"}
	}
	if s.MaxResultWindow > 0 && q.Offset+q.Limit > s.MaxResultWindow {
		return nil, &metricserrors.ErrTransport{
			Index:      q.Index,
			StatusCode: 400,
			Message:    fmt.Sprintf("result window is too large, from + size must be less than or equal to: [%d] but was [%d]", s.MaxResultWindow, q.Offset+q.Limit),
		}
	}

	if len(q.SearchAfter) > 0 {
		if q.Offset != 0 {
			return nil, &metricserrors.ErrTransport{Index: q.Index, StatusCode: 400, Message: "[from] parameter must be set to 0 when [search_after] is used"}
		}
		if len(q.SearchAfter) != len(q.Sort) {
			return nil, &metricserrors.ErrTransport{
				Index:      q.Index,
				StatusCode: 400,
				Message:    fmt.Sprintf("search_after has %d value(s) but sort has %d", len(q.SearchAfter), len(q.Sort)),
			}
		}
	}

	var matched []Document
	for _, doc := range documents {
		if matches(q.Filter, doc.Source) {
			matched = append(matched, doc)
		}
	}
	var keys [][]interface{}
	if len(q.Sort) > 0 {
		keyed := make([]sortedDocument, len(matched))
		for i, doc := range matched {
			keyed[i] = sortedDocument{doc: doc, values: sortValues(q.Sort, doc)}
		}
		sort.SliceStable(keyed, func(i, j int) bool {
			return compareSortValues(q.Sort, keyed[i].values, keyed[j].values) < 0
		})
		keys = make([][]interface{}, len(keyed))
		for i := range keyed {
			matched[i] = keyed[i].doc
			keys[i] = keyed[i].values
		}
	}

	// Total and aggregations ignore the search_after cursor.
	page, pageKeys := matched, keys
	if len(q.SearchAfter) > 0 {
		start := sort.Search(len(keys), func(i int) bool {
			return compareSortValues(q.Sort, keys[i], q.SearchAfter) > 0
		})
		page, pageKeys = matched[start:], keys[start:]
	}

	result := &SearchResult{Total: len(matched), Hits: []Document{}}
	if q.Offset < len(page) {
		end := q.Offset + q.Limit
		if end > len(page) {
			end = len(page)
		}
		result.Hits = slices.Clone(page[q.Offset:end])
		if pageKeys != nil {
			for i := range result.Hits {
				result.Hits[i].Sort = pageKeys[q.Offset+i]
			}
		}
	}
	if len(q.Aggregations) > 0 {
		aggregations, err := evaluateAggregations(q.Aggregations, matched)
		if err != nil {
			return nil, &metricserrors.ErrTransport{Index: q.Index, StatusCode: 400, Cause: err}
		}
		result.Aggregations = aggregations
	}
	return result, nil
}

type sortedDocument struct {
	doc    Document
	values []interface{}
}

// sortValues returns the values doc sorts by. The _id field sorts by document id.
func sortValues(fields []SortField, doc Document) []interface{} {
	values := make([]interface{}, len(fields))
	for i, field := range fields {
		if field.Field == IDField {
			values[i] = doc.ID
			continue
		}
		values[i], _ = Lookup(doc.Source, field.Field)
	}
	return values
}

// compareSortValues compares two tuples of sort values field by field, honouring descending fields.
func compareSortValues(fields []SortField, a, b []interface{}) int {
	for i, field := range fields {
		var c int
		if field.Field == IDField {
			idA, _ := a[i].(string)
			idB, _ := b[i].(string)
			c = compareOrdered(idA, idB)
		} else {
			c = compareValues(a[i], b[i])
		}
		if c == 0 {
			continue
		}
		if field.Descending {
			return -c
		}
		return c
	}
	return 0
}

func matches(f Filter, source map[string]interface{}) bool {
	switch t := f.(type) {
	case nil, MatchAllFilter:
		return true
	case TermFilter:
		return anyValue(source, t.Field, func(v interface{}) bool { return compareValues(v, t.Value) == 0 })
	case TermsFilter:
		return anyValue(source, t.Field, func(v interface{}) bool {
			for _, candidate := range t.Values {
				if compareValues(v, candidate) == 0 {
					return true
				}
			}
			return false
		})
	case RangeFilter:
		return anyValue(source, t.Field, func(v interface{}) bool {
			if t.Gte != nil && compareValues(v, t.Gte) < 0 {
				return false
			}
			if t.Lte != nil && compareValues(v, t.Lte) > 0 {
				return false
			}
			return true
		})
	case ExistsFilter:
		return anyValue(source, t.Field, func(v interface{}) bool { return true })
	case BoolFilter:
		for _, must := range t.Must {
			if !matches(must, source) {
				return false
			}
		}
		if len(t.Should) == 0 {
			return true
		}
		for _, should := range t.Should {
			if matches(should, source) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// anyValue applies pred to the value at field, or to each element if the value is an array.
// Missing and null values never match.
func anyValue(source map[string]interface{}, field string, pred func(interface{}) bool) bool {
	v, ok := Lookup(source, field)
	if !ok || v == nil {
		return false
	}
	if values, ok := v.([]interface{}); ok {
		for _, e := range values {
			if e != nil && pred(e) {
				return true
			}
		}
		return false
	}
	return pred(v)
}

// compareValues orders numbers numerically, timestamps chronologically, and everything else by string form.
// Missing values sort first.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if _, isString := a.(string); !isString {
		if fa, ok := AsFloat(a); ok {
			if fb, ok := AsFloat(b); ok {
				return compareOrdered(fa, fb)
			}
		}
	}
	_, aIsTime := a.(time.Time)
	_, bIsTime := b.(time.Time)
	if aIsTime || bIsTime {
		ta, okA := AsTime(a)
		tb, okB := AsTime(b)
		if okA && okB {
			return compareOrdered(ta.UnixNano(), tb.UnixNano())
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			if ta, okA := AsTime(sa); okA {
				if tb, okB := AsTime(sb); okB {
					return compareOrdered(ta.UnixNano(), tb.UnixNano())
				}
			}
		}
	}
	return compareOrdered(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func evaluateAggregations(aggs map[string]Aggregation, documents []Document) (map[string]*AggregationResult, error) {
	rv := make(map[string]*AggregationResult, len(aggs))
	for name, agg := range aggs {
		switch t := agg.(type) {
		case TermsAggregation:
			if t.Size <= 0 {
				return nil, errors.Errorf("[size] must be greater than 0. Found [%d] in [%s]", t.Size, name)
			}
			groups := make(map[string][]Document)
			for _, doc := range documents {
				seen := make(map[string]bool)
				forEachValue(doc.Source, t.Field, func(v interface{}) {
					key := fmt.Sprintf("%v", v)
					if !seen[key] {
						seen[key] = true
						groups[key] = append(groups[key], doc)
					}
				})
			}
			buckets := make([]*Bucket, 0, len(groups))
			for key, docs := range groups {
				sub, err := evaluateAggregations(t.Aggregations, docs)
				if err != nil {
					return nil, err
				}
				buckets = append(buckets, &Bucket{Key: key, DocCount: int64(len(docs)), Aggregations: sub})
			}
			slices.SortFunc(buckets, func(a, b *Bucket) bool {
				if a.DocCount != b.DocCount {
					return a.DocCount > b.DocCount
				}
				return a.Key < b.Key
			})
			if len(buckets) > t.Size {
				buckets = buckets[:t.Size]
			}
			rv[name] = &AggregationResult{Buckets: buckets}
		case MaxAggregation:
			var max *float64
			for _, doc := range documents {
				forEachValue(doc.Source, t.Field, func(v interface{}) {
					if f, ok := AsFloat(v); ok && (max == nil || f > *max) {
						max = &f
					}
				})
			}
			rv[name] = &AggregationResult{Value: max}
		case ValueCountAggregation:
			count := 0.0
			for _, doc := range documents {
				forEachValue(doc.Source, t.Field, func(interface{}) { count++ })
			}
			rv[name] = &AggregationResult{Value: &count}
		case CardinalityAggregation:
			distinct := make(map[string]bool)
			for _, doc := range documents {
				forEachValue(doc.Source, t.Field, func(v interface{}) { distinct[fmt.Sprintf("%v", v)] = true })
			}
			count := float64(len(distinct))
			rv[name] = &AggregationResult{Value: &count}
		default:
			return nil, errors.Errorf("unsupported aggregation type %T for aggregation %s", agg, name)
		}
	}
	return rv, nil
}

func forEachValue(source map[string]interface{}, field string, f func(interface{})) {
	v, ok := Lookup(source, field)
	if !ok || v == nil {
		return
	}
	if values, ok := v.([]interface{}); ok {
		for _, e := range values {
			if e != nil {
				f(e)
			}
		}
		return
	}
	f(v)
}

// DecodeDocuments is a convenience for tests and fixtures: it decodes a JSON array of hits.
func DecodeDocuments(raw []byte) ([]Document, error) {
	var documents []Document
	if err := unmarshalUseNumber(raw, &documents); err != nil {
		return nil, err
	}
	for i := range documents {
		documents[i].Source, _ = normaliseNumbers(documents[i].Source).(map[string]interface{})
	}
	return documents, nil
}

var (
	_ Store = &MemoryStore{}
	_ Store = &ElasticsearchStore{}
)
