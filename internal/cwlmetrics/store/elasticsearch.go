package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
)

// ElasticsearchStore runs queries against an Elasticsearch cluster.
type ElasticsearchStore struct {
	client *elasticsearch.Client
}

// NewElasticsearchClient creates a client for the cluster at the given addresses, e.g., "http://localhost:9200".
// Retries are disabled; a failed request fails the report.
func NewElasticsearchClient(addresses ...string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    addresses,
		DisableRetry: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error creating elasticsearch client for %v", addresses)
	}
	return client, nil
}

func NewElasticsearchStore(client *elasticsearch.Client) *ElasticsearchStore {
	return &ElasticsearchStore{client: client}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []Document `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func (s *ElasticsearchStore) Search(ctx context.Context, q *Query) (*SearchResult, error) {
	body, err := requestBody(q)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, errors.Wrapf(err, "error encoding query on index %s", q.Index)
	}
	log.WithField("index", q.Index).Debugf("search %s", buf.String())

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(q.Index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, &metricserrors.ErrTransport{Index: q.Index, Cause: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, transportErrorFromResponse(q.Index, res)
	}

	var parsed searchResponse
	decoder := json.NewDecoder(res.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&parsed); err != nil {
		return nil, &metricserrors.ErrTransport{Index: q.Index, StatusCode: res.StatusCode, Message: "malformed response", Cause: err}
	}
	aggregations, err := parseAggregations(q.Aggregations, parsed.Aggregations)
	if err != nil {
		return nil, &metricserrors.ErrTransport{Index: q.Index, StatusCode: res.StatusCode, Message: "malformed aggregations", Cause: err}
	}
	for i := range parsed.Hits.Hits {
		parsed.Hits.Hits[i].Source = normaliseNumbers(parsed.Hits.Hits[i].Source).(map[string]interface{})
		parsed.Hits.Hits[i].Sort = normaliseNumbers(parsed.Hits.Hits[i].Sort).([]interface{})
	}
	return &SearchResult{
		Total:        parsed.Hits.Total.Value,
		Hits:         parsed.Hits.Hits,
		Aggregations: aggregations,
	}, nil
}

func transportErrorFromResponse(index string, res *esapi.Response) error {
	err := &metricserrors.ErrTransport{Index: index, StatusCode: res.StatusCode}
	raw, readErr := io.ReadAll(res.Body)
	if readErr != nil {
		err.Cause = readErr
		return err
	}
	var parsed errorResponse
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Type != "" {
		err.Message = fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Reason)
	} else {
		err.Message = string(raw)
	}
	return err
}

func parseAggregations(requested map[string]Aggregation, raw map[string]json.RawMessage) (map[string]*AggregationResult, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	rv := make(map[string]*AggregationResult, len(requested))
	for name, agg := range requested {
		data, ok := raw[name]
		if !ok {
			return nil, errors.Errorf("aggregation %s missing from response", name)
		}
		result, err := parseAggregation(agg, data)
		if err != nil {
			return nil, errors.WithMessagef(err, "aggregation %s", name)
		}
		rv[name] = result
	}
	return rv, nil
}

func parseAggregation(agg Aggregation, data json.RawMessage) (*AggregationResult, error) {
	switch t := agg.(type) {
	case TermsAggregation:
		var terms struct {
			Buckets []map[string]json.RawMessage `json:"buckets"`
		}
		if err := unmarshalUseNumber(data, &terms); err != nil {
			return nil, err
		}
		buckets := make([]*Bucket, 0, len(terms.Buckets))
		for _, rawBucket := range terms.Buckets {
			var key interface{}
			if err := unmarshalUseNumber(rawBucket["key"], &key); err != nil {
				return nil, errors.Wrap(err, "error parsing bucket key")
			}
			var docCount int64
			if err := json.Unmarshal(rawBucket["doc_count"], &docCount); err != nil {
				return nil, errors.Wrap(err, "error parsing bucket doc_count")
			}
			sub, err := parseAggregations(t.Aggregations, rawBucket)
			if err != nil {
				return nil, err
			}
			buckets = append(buckets, &Bucket{Key: fmt.Sprintf("%v", key), DocCount: docCount, Aggregations: sub})
		}
		return &AggregationResult{Buckets: buckets}, nil
	case MaxAggregation, ValueCountAggregation, CardinalityAggregation:
		var metric struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &metric); err != nil {
			return nil, err
		}
		return &AggregationResult{Value: metric.Value}, nil
	default:
		return nil, errors.Errorf("unsupported aggregation type %T", agg)
	}
}

func unmarshalUseNumber(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(v)
}

// normaliseNumbers replaces json.Number values with int64 where the number is integral and float64 otherwise,
// so that byte counts survive decoding without loss of precision.
func normaliseNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normaliseNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = normaliseNumbers(e)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
