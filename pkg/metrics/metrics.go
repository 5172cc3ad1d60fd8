package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Searches       *prometheus.CounterVec // result label: ok|invalid|error
	SearchDuration prometheus.Histogram
	ReachedStops   prometheus.Histogram

	CacheLookups *prometheus.CounterVec // result label: hit|miss

	PrecomputedOrigins prometheus.Counter
	PrecomputedRecords prometheus.Counter

	IndexedStops prometheus.Gauge
	IndexedTrips prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reachability_searches_total",
			Help: "Total reachability searches by outcome.",
		}, []string{"result"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reachability_search_duration_seconds",
			Help:    "Duration of a single reachability search.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		ReachedStops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reachability_reached_stops",
			Help:    "Number of stops labelled by a search.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reachability_cache_lookups_total",
			Help: "Cached result lookups by outcome.",
		}, []string{"result"}),
		PrecomputedOrigins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reachability_precomputed_origins_total",
			Help: "Origins processed by the precompute workers.",
		}),
		PrecomputedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reachability_precomputed_records_total",
			Help: "Destination records produced by the precompute workers.",
		}),
		IndexedStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reachability_indexed_stops",
			Help: "Stops in the loaded schedule index.",
		}),
		IndexedTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reachability_indexed_trips",
			Help: "Trips in the loaded schedule index.",
		}),
	}

	reg.MustRegister(
		c.Searches, c.SearchDuration, c.ReachedStops,
		c.CacheLookups,
		c.PrecomputedOrigins, c.PrecomputedRecords,
		c.IndexedStops, c.IndexedTrips,
	)

	return c
}

// ObserveSearch records one finished search.
func (c *Collector) ObserveSearch(started time.Time, reached int, err error) {
	if c == nil {
		return
	}

	c.SearchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		c.Searches.WithLabelValues("error").Inc()
		return
	}

	c.Searches.WithLabelValues("ok").Inc()
	c.ReachedStops.Observe(float64(reached))
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
