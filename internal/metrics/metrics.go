package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the service's prometheus collectors
type Registry struct {
	reg *prometheus.Registry

	ReviewsStored     prometheus.Gauge
	ReviewsCreated    prometheus.Counter
	ReviewsRejected   *prometheus.CounterVec // label: reason
	Queries           prometheus.Counter
	QueryLatencySec   prometheus.Histogram
	SentimentComputed prometheus.Counter

	Snapshots           *prometheus.CounterVec // label: result
	NotificationsFailed prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	stored := prometheus.NewGauge(prometheus.GaugeOpts{Name: "reviews_stored"})
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "reviews_created_total"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "reviews_rejected_total"}, []string{"reason"})
	queries := prometheus.NewCounter(prometheus.CounterOpts{Name: "review_queries_total"})
	queryLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "review_query_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	computed := prometheus.NewCounter(prometheus.CounterOpts{Name: "sentiment_computed_total"})
	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "review_snapshots_total"}, []string{"result"})
	notifyFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "notifications_failed_total"})

	r.MustRegister(stored, created, rejected, queries, queryLatency, computed, snapshots, notifyFailed)
	return &Registry{
		reg:                 r,
		ReviewsStored:       stored,
		ReviewsCreated:      created,
		ReviewsRejected:     rejected,
		Queries:             queries,
		QueryLatencySec:     queryLatency,
		SentimentComputed:   computed,
		Snapshots:           snapshots,
		NotificationsFailed: notifyFailed,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
