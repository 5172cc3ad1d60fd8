package calculator

import (
	"strconv"

	"github.com/travigo/reachability/pkg/dataimporter/formats/gtfs"
	"github.com/travigo/reachability/pkg/schedule"
)

type FeedStats struct {
	Agencies  int
	Routes    int
	StopTimes int

	RouteTypes map[string]int

	Dropped   map[schedule.DropReason]int
	Anomalies int
}

func GetFeed(feed *gtfs.Schedule, summary *schedule.BuildSummary) FeedStats {
	stats := FeedStats{
		Agencies:  len(feed.Agencies),
		Routes:    len(feed.Routes),
		StopTimes: len(feed.StopTimes),
		RouteTypes: CountBy(feed.Routes, func(route gtfs.Route) string {
			return strconv.Itoa(route.Type)
		}),
	}

	if summary != nil {
		stats.Dropped = summary.Dropped
		stats.Anomalies = len(summary.Anomalies)
	}

	return stats
}
