// Package metrics exposes the engine's prometheus counters and the /metrics
// handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReadingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radmon_readings_ingested_total",
		Help: "Accepted telemetry readings written to the store.",
	})
	ReadingsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radmon_readings_rejected_total",
		Help: "Write requests rejected by the device allow-list.",
	})
	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radmon_exports_total",
		Help: "Export downloads served, by format.",
	}, []string{"format"})
)

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
