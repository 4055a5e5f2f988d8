package metrics

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const MetricsPrefix = "cwlmetrics_"

type QueryKind string

const (
	// Limit 0, no aggregations.
	QueryKindCount       QueryKind = "count"
	QueryKindSearch      QueryKind = "search"
	QueryKindAggregation QueryKind = "aggregation"
)

// Metrics records store usage for one invocation. Each instance has its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	documents     *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

func NewMetrics(prefix string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	queriesOpts := prometheus.CounterOpts{
		Name: prefix + "store_queries_total",
		Help: "Number of queries sent to the document store, grouped by index and query kind",
	}
	queryDurationOpts := prometheus.HistogramOpts{
		Name:    prefix + "store_query_duration_seconds",
		Help:    "Time taken by document store queries, grouped by index and query kind",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}
	documentsOpts := prometheus.CounterOpts{
		Name: prefix + "store_documents_total",
		Help: "Number of documents returned by the document store, grouped by index",
	}
	failuresOpts := prometheus.CounterOpts{
		Name: prefix + "store_query_failures_total",
		Help: "Number of failed document store queries, grouped by index and query kind",
	}
	return &Metrics{
		registry:      registry,
		queries:       factory.NewCounterVec(queriesOpts, []string{"index", "kind"}),
		queryDuration: factory.NewHistogramVec(queryDurationOpts, []string{"index", "kind"}),
		documents:     factory.NewCounterVec(documentsOpts, []string{"index"}),
		failures:      factory.NewCounterVec(failuresOpts, []string{"index", "kind"}),
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) RecordQuery(index string, kind QueryKind, duration time.Duration, documents int) {
	labels := prometheus.Labels{"index": index, "kind": string(kind)}
	m.queries.With(labels).Inc()
	m.queryDuration.With(labels).Observe(duration.Seconds())
	m.documents.With(prometheus.Labels{"index": index}).Add(float64(documents))
}

func (m *Metrics) RecordQueryFailure(index string, kind QueryKind) {
	labels := prometheus.Labels{"index": index, "kind": string(kind)}
	m.queries.With(labels).Inc()
	m.failures.With(labels).Inc()
}

// Push replaces the metrics of job on the Pushgateway at url with the current values.
func (m *Metrics) Push(ctx context.Context, url string, job string) error {
	err := push.New(url, job).Gatherer(m.registry).PushContext(ctx)
	return errors.Wrapf(err, "error pushing metrics to %s", url)
}
