package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-metrics/cwl-metrics/internal/common/metricserrors"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/retrieval"
	"github.com/cwl-metrics/cwl-metrics/internal/cwlmetrics/store"
)

func TestInstrumentedStore(t *testing.T) {
	backing := store.NewMemoryStore()
	for i := 0; i < 5; i++ {
		backing.Add("workflow", store.Document{ID: string(rune('a' + i)), Source: map[string]interface{}{}})
	}
	m := NewMetrics(MetricsPrefix)
	s := NewInstrumentedStore(backing, m)

	documents, err := retrieval.NewWindowedRetriever(s, 2).RetrieveAll(context.Background(), &store.Query{Index: "workflow"})
	require.NoError(t, err)
	require.Len(t, documents, 5)

	_, err = s.Search(context.Background(), &store.Query{
		Index:        "workflow",
		Aggregations: map[string]store.Aggregation{"n": store.ValueCountAggregation{Field: "x"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("workflow", string(QueryKindCount))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.queries.WithLabelValues("workflow", string(QueryKindSearch))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("workflow", string(QueryKindAggregation))))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.documents.WithLabelValues("workflow")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.queryDuration))
}

func TestInstrumentedStore_Failure(t *testing.T) {
	m := NewMetrics(MetricsPrefix)
	s := NewInstrumentedStore(store.NewMemoryStore(), m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, &store.Query{Index: "telegraf", Limit: 10})

	assert.True(t, metricserrors.IsTransport(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("telegraf", string(QueryKindSearch))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("telegraf", string(QueryKindSearch))))
}

func TestPush(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(raw)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMetrics(MetricsPrefix)
	m.RecordQuery("workflow", QueryKindSearch, 0, 3)

	require.NoError(t, m.Push(context.Background(), server.URL, "cwlmetrics"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/cwlmetrics", path)
	assert.True(t, strings.Contains(body, "cwlmetrics_store_documents_total"))
}

func TestPush_Unreachable(t *testing.T) {
	m := NewMetrics(MetricsPrefix)
	err := m.Push(context.Background(), "http://127.0.0.1:1", "cwlmetrics")
	assert.Error(t, err)
}
