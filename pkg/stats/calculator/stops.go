package calculator

import (
	"github.com/travigo/reachability/pkg/schedule"
	"golang.org/x/exp/slices"
)

const topStopsLimit = 10

type StopsStats struct {
	Total    int
	Served   int
	Unserved int

	AverageTripsPerStop float64
	TopStops            []StopFrequency
}

type StopFrequency struct {
	StopID string
	Name   string
	Trips  int
}

// GetStops counts how many distinct trips call at each stop of the index and
// keeps the busiest ones.
func GetStops(index *schedule.Index) StopsStats {
	stats := StopsStats{}

	frequencies := []StopFrequency{}
	totalTrips := 0
	for _, stop := range index.Stops() {
		stats.Total++

		trips := map[string]bool{}
		for _, ref := range index.VisitsByStop(stop.ID) {
			trips[ref.TripID] = true
		}

		if len(trips) == 0 {
			stats.Unserved++
			continue
		}

		stats.Served++
		totalTrips += len(trips)
		frequencies = append(frequencies, StopFrequency{StopID: stop.ID, Name: stop.Name, Trips: len(trips)})
	}

	if stats.Served > 0 {
		stats.AverageTripsPerStop = float64(totalTrips) / float64(stats.Served)
	}

	// Stops() is ordered by ID so equal counts stay in ID order
	slices.SortStableFunc(frequencies, func(a, b StopFrequency) int {
		return b.Trips - a.Trips
	})
	if len(frequencies) > topStopsLimit {
		frequencies = frequencies[:topStopsLimit]
	}
	stats.TopStops = frequencies

	return stats
}
