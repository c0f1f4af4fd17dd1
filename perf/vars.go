package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency = metric.NewHistogram("1m1s")
	SpfLatency      = metric.NewHistogram("1m1s")
	LsuSent         = metric.NewCounter("10s1s")
	LsuReceived     = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("osdrp:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("osdrp:SpfLatency (µs)", SpfLatency)
	expvar.Publish("osdrp:LsuSent/s", LsuSent)
	expvar.Publish("osdrp:LsuRecv/s", LsuReceived)
}
