package inmemory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "netmirror_ratelimit_rejected_total",
	Help: "Requests rejected by the fixed-window rate limiter",
}, []string{"class"})
