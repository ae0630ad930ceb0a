package bluesky

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var xrpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skygazer_xrpc_requests_total",
	Help: "Number of XRPC requests sent, by method and response status",
}, []string{"nsid", "status"})

var xrpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "skygazer_xrpc_request_duration_seconds",
	Help:    "Time taken by XRPC requests",
	Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
}, []string{"nsid"})

var sessionRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skygazer_session_refreshes_total",
	Help: "Number of access token refreshes, by trigger",
}, []string{"trigger"})

var droppedItems = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skygazer_xrpc_dropped_items_total",
	Help: "Number of response items dropped because they could not be decoded, by method",
}, []string{"nsid"})
