package stats

import (
	"time"

	"github.com/travigo/reachability/pkg/dataimporter/formats/gtfs"
	"github.com/travigo/reachability/pkg/schedule"
	"github.com/travigo/reachability/pkg/stats/calculator"
)

type Stats struct {
	Feed  calculator.FeedStats
	Stops calculator.StopsStats
	Trips calculator.TripsStats

	Timestamp time.Time
}

func Calculate(feed *gtfs.Schedule, index *schedule.Index, summary *schedule.BuildSummary) *Stats {
	return &Stats{
		Feed:      calculator.GetFeed(feed, summary),
		Stops:     calculator.GetStops(index),
		Trips:     calculator.GetTrips(feed, index),
		Timestamp: time.Now(),
	}
}
