package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
)

// fakeElasticsearch serves canned responses for _search requests and records the request bodies.
func fakeElasticsearch(t *testing.T, status int, response string) (*ElasticsearchStore, *[]map[string]interface{}) {
	var requests []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = io.WriteString(w, `{"version":{"number":"7.17.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
			return
		}
		body := map[string]interface{}{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			body["_path"] = r.URL.Path
			requests = append(requests, body)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	client, err := NewElasticsearchClient(server.URL)
	require.NoError(t, err)
	return NewElasticsearchStore(client), &requests
}

func TestElasticsearchStore_Hits(t *testing.T) {
	s, requests := fakeElasticsearch(t, http.StatusOK, `{
		"hits": {
			"total": {"value": 12000, "relation": "eq"},
			"hits": [
				{"_index": "workflow", "_id": "wf1", "_source": {"workflow": {"cwlfile": "a.cwl"}, "size": 12345678901, "ratio": 0.5}}
			]
		}
	}`)

	result, err := s.Search(context.Background(), &Query{Index: "workflow", Offset: 5000, Limit: 1, TrackTotal: true})
	require.NoError(t, err)
	assert.Equal(t, 12000, result.Total)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "wf1", result.Hits[0].ID)
	assert.Equal(t, "workflow", result.Hits[0].Index)
	assert.Equal(t, int64(12345678901), result.Hits[0].Source["size"])
	assert.Equal(t, 0.5, result.Hits[0].Source["ratio"])
	name, _ := Lookup(result.Hits[0].Source, "workflow.cwlfile")
	assert.Equal(t, "a.cwl", name)

	require.Len(t, *requests, 1)
	request := (*requests)[0]
	assert.Equal(t, "/workflow/_search", request["_path"])
	assert.Equal(t, 5000.0, request["from"])
	assert.Equal(t, 1.0, request["size"])
	assert.Equal(t, true, request["track_total_hits"])
}

func TestElasticsearchStore_SearchAfter(t *testing.T) {
	s, requests := fakeElasticsearch(t, http.StatusOK, `{
		"hits": {
			"total": {"value": 3, "relation": "eq"},
			"hits": [
				{"_index": "telegraf", "_id": "m2", "_source": {}, "sort": [1704067201000, "m2"]},
				{"_index": "telegraf", "_id": "m3", "_source": {}, "sort": [1704067201000, "m3"]}
			]
		}
	}`)

	result, err := s.Search(context.Background(), &Query{
		Index:       "telegraf",
		Sort:        []SortField{{Field: "@timestamp"}, {Field: IDField}},
		SearchAfter: []interface{}{int64(1704067200000), "m1"},
		Limit:       2,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, []interface{}{int64(1704067201000), "m3"}, result.Hits[1].Sort)

	require.Len(t, *requests, 1)
	request := (*requests)[0]
	assert.Equal(t, []interface{}{1704067200000.0, "m1"}, request["search_after"])
	assert.NotContains(t, request, "from")
}

func TestElasticsearchStore_Aggregations(t *testing.T) {
	s, _ := fakeElasticsearch(t, http.StatusOK, `{
		"hits": {"total": {"value": 3}, "hits": []},
		"aggregations": {
			"distinct": {"value": 2},
			"containers": {
				"buckets": [
					{"key": "abc", "doc_count": 2, "cpu": {"value": 12.5}, "io": {"value": null}},
					{"key": 42, "doc_count": 1, "cpu": {"value": 1.0}, "io": {"value": 1024.0}}
				]
			}
		}
	}`)

	result, err := s.Search(context.Background(), &Query{
		Index: "telegraf",
		Aggregations: map[string]Aggregation{
			"distinct": CardinalityAggregation{Field: "container_id"},
			"containers": TermsAggregation{
				Field: "container_id",
				Size:  2,
				Aggregations: map[string]Aggregation{
					"cpu": MaxAggregation{Field: "docker_container_cpu.usage_percent"},
					"io":  MaxAggregation{Field: "docker_container_blkio.io_service_bytes_recursive_total"},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, *result.Aggregations["distinct"].Value)
	buckets := result.Aggregations["containers"].Buckets
	require.Len(t, buckets, 2)
	assert.Equal(t, "abc", buckets[0].Key)
	assert.Equal(t, int64(2), buckets[0].DocCount)
	assert.Equal(t, 12.5, *buckets[0].Aggregations["cpu"].Value)
	assert.Nil(t, buckets[0].Aggregations["io"].Value)
	assert.Equal(t, "42", buckets[1].Key)
	assert.Equal(t, 1024.0, *buckets[1].Aggregations["io"].Value)
}

func TestElasticsearchStore_MissingAggregation(t *testing.T) {
	s, _ := fakeElasticsearch(t, http.StatusOK, `{"hits": {"total": {"value": 0}, "hits": []}}`)
	_, err := s.Search(context.Background(), &Query{
		Index:        "telegraf",
		Aggregations: map[string]Aggregation{"distinct": CardinalityAggregation{Field: "container_id"}},
	})
	assert.True(t, metricserrors.IsTransport(err))
}

func TestElasticsearchStore_ErrorResponse(t *testing.T) {
	s, _ := fakeElasticsearch(t, http.StatusBadRequest, `{
		"error": {"type": "illegal_argument_exception", "reason": "Result window is too large"},
		"status": 400
	}`)
	_, err := s.Search(context.Background(), &Query{Index: "workflow", Offset: 9000, Limit: 5000})
	require.Error(t, err)

	var transportErr *metricserrors.ErrTransport
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusBadRequest, transportErr.StatusCode)
	assert.Equal(t, "workflow", transportErr.Index)
	assert.Equal(t, "illegal_argument_exception: Result window is too large", transportErr.Message)
}

func TestElasticsearchStore_Unreachable(t *testing.T) {
	client, err := NewElasticsearchClient("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = NewElasticsearchStore(client).Search(context.Background(), &Query{Index: "workflow"})
	assert.True(t, metricserrors.IsTransport(err))
}
