package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFramesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netmirror_browser_frames_relayed_total",
		Help: "Screencast frames delivered to subscriber queues",
	})

	metricFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netmirror_browser_frames_dropped_total",
		Help: "Screencast frames dropped because a subscriber queue was saturated",
	})
)
