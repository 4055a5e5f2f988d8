package store

import (
	"time"

	"github.com/pkg/errors"
)

// requestBody renders q as an Elasticsearch search request body.
func requestBody(q *Query) (map[string]interface{}, error) {
	query, err := filterDsl(q.Filter)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"query": query,
		"size":  q.Limit,
	}
	if q.Offset > 0 {
		body["from"] = q.Offset
	}
	if q.TrackTotal {
		body["track_total_hits"] = true
	}
	if len(q.Sort) > 0 {
		sort := make([]interface{}, len(q.Sort))
		for i, s := range q.Sort {
			order := "asc"
			if s.Descending {
				order = "desc"
			}
			sort[i] = map[string]interface{}{s.Field: map[string]interface{}{"order": order}}
		}
		body["sort"] = sort
	}
	if len(q.SearchAfter) > 0 {
		body["search_after"] = q.SearchAfter
	}
	if len(q.Aggregations) > 0 {
		aggs, err := aggregationsDsl(q.Aggregations)
		if err != nil {
			return nil, err
		}
		body["aggs"] = aggs
	}
	return body, nil
}

func filterDsl(f Filter) (map[string]interface{}, error) {
	switch t := f.(type) {
	case nil, MatchAllFilter:
		return map[string]interface{}{"match_all": map[string]interface{}{}}, nil
	case TermFilter:
		return map[string]interface{}{"term": map[string]interface{}{t.Field: dslValue(t.Value)}}, nil
	case TermsFilter:
		values := make([]interface{}, len(t.Values))
		for i, v := range t.Values {
			values[i] = dslValue(v)
		}
		return map[string]interface{}{"terms": map[string]interface{}{t.Field: values}}, nil
	case RangeFilter:
		bounds := map[string]interface{}{}
		if t.Gte != nil {
			bounds["gte"] = dslValue(t.Gte)
		}
		if t.Lte != nil {
			bounds["lte"] = dslValue(t.Lte)
		}
		return map[string]interface{}{"range": map[string]interface{}{t.Field: bounds}}, nil
	case ExistsFilter:
		return map[string]interface{}{"exists": map[string]interface{}{"field": t.Field}}, nil
	case BoolFilter:
		boolQuery := map[string]interface{}{}
		if len(t.Must) > 0 {
			must, err := filtersDsl(t.Must)
			if err != nil {
				return nil, err
			}
			boolQuery["filter"] = must
		}
		if len(t.Should) > 0 {
			should, err := filtersDsl(t.Should)
			if err != nil {
				return nil, err
			}
			boolQuery["should"] = should
			boolQuery["minimum_should_match"] = 1
		}
		return map[string]interface{}{"bool": boolQuery}, nil
	default:
		return nil, errors.Errorf("unsupported filter type %T", f)
	}
}

func filtersDsl(filters []Filter) ([]interface{}, error) {
	rv := make([]interface{}, len(filters))
	for i, f := range filters {
		dsl, err := filterDsl(f)
		if err != nil {
			return nil, err
		}
		rv[i] = dsl
	}
	return rv, nil
}

func aggregationsDsl(aggs map[string]Aggregation) (map[string]interface{}, error) {
	rv := make(map[string]interface{}, len(aggs))
	for name, agg := range aggs {
		switch t := agg.(type) {
		case TermsAggregation:
			terms := map[string]interface{}{
				"terms": map[string]interface{}{"field": t.Field, "size": t.Size},
			}
			if len(t.Aggregations) > 0 {
				sub, err := aggregationsDsl(t.Aggregations)
				if err != nil {
					return nil, err
				}
				terms["aggs"] = sub
			}
			rv[name] = terms
		case MaxAggregation:
			rv[name] = map[string]interface{}{"max": map[string]interface{}{"field": t.Field}}
		case ValueCountAggregation:
			rv[name] = map[string]interface{}{"value_count": map[string]interface{}{"field": t.Field}}
		case CardinalityAggregation:
			cardinality := map[string]interface{}{"field": t.Field}
			if t.PrecisionThreshold > 0 {
				cardinality["precision_threshold"] = t.PrecisionThreshold
			}
			rv[name] = map[string]interface{}{"cardinality": cardinality}
		default:
			return nil, errors.Errorf("unsupported aggregation type %T for aggregation %s", agg, name)
		}
	}
	return rv, nil
}

func dslValue(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}
