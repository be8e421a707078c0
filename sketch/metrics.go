package sketch

import "github.com/prometheus/client_golang/prometheus"

// Stats exposes a CooledSketch's internal state as Prometheus gauges,
// following the shape of the teacher's promMetrics/updatePrometheusMetrics
// pair: a small struct of named gauges, registered once and updated on
// demand by the caller (typically once per dashboard tick or once per
// experiment run), never on the sketch's own hot path.
type Stats struct {
	memoryBytes  prometheus.Gauge
	kllHeight    prometheus.Gauge
	totalWeight  prometheus.Gauge
	hotVoteTotal prometheus.Gauge
}

// NewStats builds a fresh set of gauges. It does not register them;
// callers that want them scraped call Register.
func NewStats() *Stats {
	return &Stats{
		memoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cooledkll_memory_bytes",
			Help: "Bytes currently occupied by the sketch (Hot Filter + KLL).",
		}),
		kllHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cooledkll_height",
			Help: "Current height (h) of the Classic KLL compactor stack.",
		}),
		totalWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cooledkll_total_weight",
			Help: "Estimated number of observed elements (N): the sketch's rank of the largest uint64 value.",
		}),
		hotVoteTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cooledkll_hot_filter_vote_total",
			Help: "Sum of vote counters across every Hot Filter bucket.",
		}),
	}
}

// Register registers every gauge with reg.
func (s *Stats) Register(reg prometheus.Registerer) error {
	for _, g := range []prometheus.Collector{s.memoryBytes, s.kllHeight, s.totalWeight, s.hotVoteTotal} {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// Update refreshes every gauge from the current state of sk.
func (s *Stats) Update(sk *CooledSketch) {
	s.memoryBytes.Set(float64(sk.Memory()))
	s.kllHeight.Set(float64(sk.Height()))
	s.totalWeight.Set(float64(sk.Rank(^uint64(0))))
	s.hotVoteTotal.Set(float64(sk.HotFilterVotes()))
}
