package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transpose_pipeline_requests_total",
		Help: "Total pipeline runs by terminal result",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transpose_fetch_duration_seconds",
		Help:    "Remote audio fetch duration",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	transformDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transpose_transform_duration_seconds",
		Help:    "Transcoder subprocess duration",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})
)
