package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cooledkll/cooledkll/sketch"
)

// globalStats is the process-wide gauge set scraped by Prometheus. The
// teacher registers its gauges once at startup and updates them on
// every tick (initPrometheusMetrics/updatePrometheusMetrics); sketch.Stats
// already packages that same Register/Update pair, so this file only
// wires it to the one running ingestState instead of redefining it.
var globalStats = sketch.NewStats()

func initPrometheusMetrics() {
	if err := globalStats.Register(prometheus.DefaultRegisterer); err != nil {
		panic(err)
	}
}

func updatePrometheusMetrics(state *ingestState) {
	state.mu.Lock()
	sk := state.sk
	state.mu.Unlock()
	globalStats.Update(sk)
}

var metricsHandler = promhttp.Handler()
