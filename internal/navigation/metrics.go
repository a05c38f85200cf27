package navigation

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts distance-map builds and cache hits.
// A nil *Metrics records nothing.
type Metrics struct {
	built     *prometheus.CounterVec
	hits      prometheus.Counter
	reachable prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		built: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "starmap_distance_maps_built_total",
			Help: "Distance maps computed, by traversal policy.",
		}, []string{"policy"}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "starmap_distance_map_cache_hits_total",
			Help: "Distance map lookups served from the cache.",
		}),
		reachable: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "starmap_distance_map_reachable_systems",
			Help:    "Number of reachable systems per computed distance map.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.built, m.hits, m.reachable)
	}
	return m
}

func (m *Metrics) observeBuild(dm *DistanceMap) {
	if m == nil {
		return
	}
	m.built.WithLabelValues(dm.Policy().String()).Inc()
	m.reachable.Observe(float64(dm.Len()))
}

func (m *Metrics) observeHit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}
