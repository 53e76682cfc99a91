package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricEventsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "netmirror_ws_events_sent_total",
	Help: "Reliable websocket events enqueued, by event type",
}, []string{"type"})
