package calculator

import (
	"time"

	"github.com/travigo/reachability/pkg/dataimporter/formats/gtfs"
	"github.com/travigo/reachability/pkg/schedule"
)

type TripsStats struct {
	Total   int
	Indexed int

	Durations DurationSummary
	Routes    map[string]int
}

// GetTrips summarises the scheduled end to end durations of the feed trips and
// how many of them made it into the index.
func GetTrips(feed *gtfs.Schedule, index *schedule.Index) TripsStats {
	stats := TripsStats{
		Total:   len(feed.Trips),
		Indexed: len(index.TripIDs()),
		Routes: CountBy(feed.Trips, func(trip gtfs.Trip) string {
			return trip.RouteID
		}),
	}

	durations := []time.Duration{}
	for _, duration := range feed.TripDurations() {
		durations = append(durations, duration.Duration)
	}
	stats.Durations = summariseDurations(durations)

	return stats
}
