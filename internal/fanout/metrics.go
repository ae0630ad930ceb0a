package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var itemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skygazer_fanout_items_total",
	Help: "Feed items processed by the aggregator, by outcome",
}, []string{"outcome"})

var labelFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "skygazer_fanout_label_failures_total",
	Help: "Label resolutions that failed and degraded to no labels",
})

var aggregateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "skygazer_fanout_duration_seconds",
	Help:    "Time to aggregate one page",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 30, 20),
})
