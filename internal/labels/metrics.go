package labels

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skygazer_label_resolutions_total",
	Help: "User label resolutions by outcome",
}, []string{"status"})

var resolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "skygazer_label_resolution_duration_seconds",
	Help:    "Time to resolve the user labels of one subject",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 10, 16),
}, []string{"status"})

var labelerCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "skygazer_labeler_cache_hits_total",
	Help: "Labeler views served from cache",
})

var labelerCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "skygazer_labeler_cache_misses_total",
	Help: "Labeler views fetched from the network",
})
