package routes

import (
	"github.com/travigo/reachability/pkg/api/cachedresults"
	"github.com/travigo/reachability/pkg/metrics"
	"github.com/travigo/reachability/pkg/schedule"
	"github.com/travigo/reachability/pkg/stats"
)

// Dataset is the loaded feed the routes answer from. Cache and Metrics are
// optional.
type Dataset struct {
	Identifier string

	Index *schedule.Index
	Stats *stats.Stats

	Cache   *cachedresults.Cache
	Metrics *metrics.Collector
}
