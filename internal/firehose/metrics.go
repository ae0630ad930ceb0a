package firehose

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skygazer_firehose_events_total",
	Help: "Jetstream events received, by kind",
}, []string{"kind"})

var postsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "skygazer_firehose_posts_total",
	Help: "Post commits applied to the open feed, by operation",
}, []string{"operation"})

var reconnects = promauto.NewCounter(prometheus.CounterOpts{
	Name: "skygazer_firehose_reconnects_total",
	Help: "Jetstream connection failures followed by a reconnect",
})
