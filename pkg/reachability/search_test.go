package reachability

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/reachability/pkg/schedule"
)

type tripSpec struct {
	id    string
	stops []string
	// one HH:MM:SS per stop, used for both arrival and departure
	times []string
}

func buildIndex(t *testing.T, stopIDs []string, trips []tripSpec) *schedule.Index {
	t.Helper()

	stops := []schedule.Stop{}
	for _, id := range stopIDs {
		stops = append(stops, schedule.Stop{ID: id, Name: "Stop " + id})
	}

	scheduleTrips := []schedule.Trip{}
	visits := []schedule.RawStopVisit{}
	for _, trip := range trips {
		require.Len(t, trip.times, len(trip.stops))
		scheduleTrips = append(scheduleTrips, schedule.Trip{ID: trip.id, RouteID: "route-" + trip.id})

		for i, stopID := range trip.stops {
			visits = append(visits, schedule.RawStopVisit{
				TripID:        trip.id,
				StopID:        stopID,
				Position:      i + 1,
				ArrivalTime:   trip.times[i],
				DepartureTime: trip.times[i],
			})
		}
	}

	index, summary := schedule.Build(stops, scheduleTrips, visits)
	require.Zero(t, summary.DroppedTotal())
	require.Empty(t, summary.Anomalies)

	return index
}

func scenarioIndex(t *testing.T) *schedule.Index {
	return buildIndex(t, []string{"X", "Y", "Z"}, []tripSpec{
		{id: "trip", stops: []string{"X", "Y", "Z"}, times: []string{"08:00:00", "08:30:00", "09:15:00"}},
	})
}

func TestSearchSingleTrip(t *testing.T) {
	labels, err := Search(scenarioIndex(t), Query{Origins: []string{"X"}, Budget: 2 * time.Hour, MaxTransfers: 0})
	require.NoError(t, err)

	assert.Equal(t, Labels{
		"Y": {0: 30 * time.Minute},
		"Z": {0: 75 * time.Minute},
	}, labels)
}

func TestSearchBudgetExcludesFartherStops(t *testing.T) {
	labels, err := Search(scenarioIndex(t), Query{Origins: []string{"X"}, Budget: 40 * time.Minute})
	require.NoError(t, err)

	assert.Equal(t, Labels{"Y": {0: 30 * time.Minute}}, labels)
}

func TestSearchTransfers(t *testing.T) {
	index := buildIndex(t, []string{"X", "Y", "Z"}, []tripSpec{
		{id: "trip1", stops: []string{"X", "Y"}, times: []string{"08:00:00", "08:30:00"}},
		{id: "trip2", stops: []string{"Y", "Z"}, times: []string{"08:40:00", "09:00:00"}},
	})

	labels, err := Search(index, Query{Origins: []string{"X"}, Budget: 2 * time.Hour, MaxTransfers: 1})
	require.NoError(t, err)
	assert.Equal(t, Labels{
		"Y": {0: 30 * time.Minute},
		"Z": {1: 50 * time.Minute},
	}, labels)

	labels, err = Search(index, Query{Origins: []string{"X"}, Budget: 2 * time.Hour, MaxTransfers: 0})
	require.NoError(t, err)
	assert.NotContains(t, labels, "Z")
	assert.Contains(t, labels, "Y")
}

func TestSearchKeepsFasterLabelWithMoreTransfers(t *testing.T) {
	index := buildIndex(t, []string{"X", "Y", "Z"}, []tripSpec{
		{id: "slow", stops: []string{"X", "Z"}, times: []string{"08:00:00", "11:00:00"}},
		{id: "fast1", stops: []string{"X", "Y"}, times: []string{"08:00:00", "08:30:00"}},
		{id: "fast2", stops: []string{"Y", "Z"}, times: []string{"08:45:00", "09:15:00"}},
	})

	labels, err := Search(index, Query{Origins: []string{"X"}, Budget: 4 * time.Hour, MaxTransfers: 2})
	require.NoError(t, err)

	assert.Equal(t, map[int]time.Duration{0: 3 * time.Hour, 1: time.Hour}, labels["Z"])

	best, transfers, ok := labels.Best("Z")
	require.True(t, ok)
	assert.Equal(t, time.Hour, best)
	assert.Equal(t, 1, transfers)
}

func TestSearchDoesNotReportOrigins(t *testing.T) {
	index := buildIndex(t, []string{"X", "X2", "Y"}, []tripSpec{
		{id: "loop", stops: []string{"X", "Y", "X2"}, times: []string{"08:00:00", "08:30:00", "09:00:00"}},
		{id: "back", stops: []string{"Y", "X"}, times: []string{"09:00:00", "09:30:00"}},
	})

	labels, err := Search(index, Query{Origins: []string{"X", "X2"}, Budget: 3 * time.Hour, MaxTransfers: 3})
	require.NoError(t, err)

	assert.NotContains(t, labels, "X")
	assert.NotContains(t, labels, "X2")
	assert.Contains(t, labels, "Y")
}

func TestSearchUnknownOriginsYieldNothing(t *testing.T) {
	labels, err := Search(scenarioIndex(t), Query{Origins: []string{"Budapest"}, Budget: time.Hour})
	require.NoError(t, err)
	assert.Empty(t, labels)

	labels, err = Search(scenarioIndex(t), Query{Budget: time.Hour})
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestSearchRejectsInvalidQueries(t *testing.T) {
	index := scenarioIndex(t)

	_, err := Search(index, Query{Origins: []string{"X"}, Budget: time.Hour, Window: &Window{Start: 10 * time.Hour, End: 10 * time.Hour}})
	var invalidWindow *InvalidWindowError
	require.True(t, errors.As(err, &invalidWindow))
	assert.Equal(t, 10*time.Hour, invalidWindow.Start)

	_, err = Search(index, Query{Origins: []string{"X"}, Budget: time.Hour, Window: &Window{Start: 11 * time.Hour, End: 9 * time.Hour}})
	assert.True(t, errors.As(err, &invalidWindow))

	_, err = Search(index, Query{Origins: []string{"X"}, Budget: 0})
	assert.ErrorIs(t, err, ErrInvalidBudget)

	_, err = Search(index, Query{Origins: []string{"X"}, Budget: time.Hour, MaxTransfers: -1})
	assert.ErrorIs(t, err, ErrInvalidTransfers)
}

func TestSearchWindowIsCheckedAtBoarding(t *testing.T) {
	index := buildIndex(t, []string{"X", "Y", "Z", "W"}, []tripSpec{
		// boards inside the morning window and keeps running into midday
		{id: "early", stops: []string{"X", "Y", "Z"}, times: []string{"09:30:00", "10:30:00", "11:00:00"}},
		{id: "late", stops: []string{"X", "W"}, times: []string{"12:00:00", "12:30:00"}},
	})

	morning, err := ParseWindow("morning")
	require.NoError(t, err)

	labels, err := Search(index, Query{Origins: []string{"X"}, Budget: 5 * time.Hour, Window: morning})
	require.NoError(t, err)
	assert.Equal(t, Labels{
		"Y": {0: time.Hour},
		"Z": {0: 90 * time.Minute},
	}, labels)

	unrestricted, err := Search(index, Query{Origins: []string{"X"}, Budget: 5 * time.Hour})
	require.NoError(t, err)
	assert.Contains(t, unrestricted, "W")
}

func TestSearchWindowFoldsPastMidnight(t *testing.T) {
	index := buildIndex(t, []string{"X", "Y"}, []tripSpec{
		{id: "owl", stops: []string{"X", "Y"}, times: []string{"25:30:00", "26:00:00"}},
	})

	earlyMorning, err := ParseWindow("early-morning")
	require.NoError(t, err)

	labels, err := Search(index, Query{Origins: []string{"X"}, Budget: time.Hour, Window: earlyMorning})
	require.NoError(t, err)
	assert.Equal(t, Labels{"Y": {0: 30 * time.Minute}}, labels)
}

func TestSearchHopCost(t *testing.T) {
	labels, err := Search(scenarioIndex(t), Query{Origins: []string{"X"}, Budget: Unlimited, HopCost: time.Minute})
	require.NoError(t, err)

	assert.Equal(t, Labels{
		"Y": {0: time.Minute},
		"Z": {0: 2 * time.Minute},
	}, labels)
}

func TestSearchParallelTripsUseFasterBoarding(t *testing.T) {
	// feeder passes A then B; the express can be boarded at both but only
	// boarding at B is fast enough to reach D inside the budget
	index := buildIndex(t, []string{"O", "A", "B", "C", "D"}, []tripSpec{
		{id: "feeder", stops: []string{"O", "A", "B"}, times: []string{"08:00:00", "08:10:00", "08:20:00"}},
		{id: "express", stops: []string{"A", "C", "B", "D"}, times: []string{"08:30:00", "09:30:00", "10:30:00", "10:40:00"}},
	})

	labels, err := Search(index, Query{Origins: []string{"O"}, Budget: 40 * time.Minute, MaxTransfers: 1})
	require.NoError(t, err)

	assert.Equal(t, map[int]time.Duration{1: 30 * time.Minute}, labels["D"])
	assert.NotContains(t, labels, "C")
}

func TestSearchContinuesLoopTrip(t *testing.T) {
	// the vehicle passes S twice, waiting at S for its second pass is no change
	index := buildIndex(t, []string{"X", "S", "P", "C"}, []tripSpec{
		{id: "loop", stops: []string{"X", "S", "P", "S", "C"}, times: []string{"08:00:00", "08:10:00", "08:40:00", "09:10:00", "09:20:00"}},
	})

	labels, err := Search(index, Query{Origins: []string{"X"}, Budget: 2 * time.Hour, MaxTransfers: 0})
	require.NoError(t, err)

	assert.Equal(t, Labels{
		"S": {0: 10 * time.Minute},
		"P": {0: 40 * time.Minute},
		"C": {0: 20 * time.Minute},
	}, labels)
}

func TestSearchContinuesSlowerArrivalTrip(t *testing.T) {
	// S is reached first on fast, but only the loop arrival can carry on to
	// C without a change
	index := buildIndex(t, []string{"X", "S", "P", "C"}, []tripSpec{
		{id: "fast", stops: []string{"X", "S"}, times: []string{"08:00:00", "08:10:00"}},
		{id: "loop", stops: []string{"X", "S", "P", "S", "C"}, times: []string{"08:00:00", "08:20:00", "08:50:00", "09:20:00", "09:30:00"}},
	})

	labels, err := Search(index, Query{Origins: []string{"X"}, Budget: 2 * time.Hour, MaxTransfers: 0})
	require.NoError(t, err)
	assert.Equal(t, Labels{
		"S": {0: 10 * time.Minute},
		"P": {0: 50 * time.Minute},
		"C": {0: 30 * time.Minute},
	}, labels)

	labels, err = Search(index, Query{Origins: []string{"X"}, Budget: 2 * time.Hour, MaxTransfers: 1})
	require.NoError(t, err)
	assert.Equal(t, Labels{
		"S": {0: 10 * time.Minute, 1: 70 * time.Minute},
		"P": {0: 50 * time.Minute, 1: 40 * time.Minute},
		"C": {0: 30 * time.Minute, 1: 20 * time.Minute},
	}, labels)
}

func TestSearchLoopTripWithFeeder(t *testing.T) {
	index := buildIndex(t, []string{"X", "Q", "S", "P", "C"}, []tripSpec{
		{id: "loop", stops: []string{"X", "S", "P", "S", "C"}, times: []string{"08:00:00", "08:10:00", "08:40:00", "09:10:00", "09:20:00"}},
		{id: "feeder", stops: []string{"X", "Q", "S"}, times: []string{"08:00:00", "08:05:00", "08:15:00"}},
	})

	labels, err := Search(index, Query{Origins: []string{"X"}, Budget: 2 * time.Hour, MaxTransfers: 1})
	require.NoError(t, err)

	best, transfers, ok := labels.Best("C")
	require.True(t, ok)
	assert.Equal(t, 20*time.Minute, best)
	assert.Equal(t, 0, transfers)
	assert.Equal(t, 25*time.Minute, labels["C"][1])
}

func randomIndex(t *testing.T, seed int64) (*schedule.Index, []string) {
	random := rand.New(rand.NewSource(seed))

	stopIDs := []string{}
	for i := 0; i < 25; i++ {
		stopIDs = append(stopIDs, fmt.Sprintf("S%02d", i))
	}

	trips := []tripSpec{}
	for i := 0; i < 40; i++ {
		length := 2 + random.Intn(6)
		current := time.Duration(random.Intn(26*60)) * time.Minute

		trip := tripSpec{id: fmt.Sprintf("T%02d", i)}
		for j := 0; j < length; j++ {
			trip.stops = append(trip.stops, stopIDs[random.Intn(len(stopIDs))])
			trip.times = append(trip.times, formatClock(current))
			current += time.Duration(5+random.Intn(55)) * time.Minute
		}
		trips = append(trips, trip)
	}

	return buildIndex(t, stopIDs, trips), stopIDs
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:00", int(d.Hours()), int(d.Minutes())%60)
}

func TestSearchProperties(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		index, stopIDs := randomIndex(t, seed)

		for _, budget := range []time.Duration{30 * time.Minute, 2 * time.Hour, 6 * time.Hour} {
			for maxTransfers := 0; maxTransfers <= 2; maxTransfers++ {
				origins := []string{stopIDs[int(seed)%len(stopIDs)], stopIDs[(int(seed)*7)%len(stopIDs)]}
				query := Query{Origins: origins, Budget: budget, MaxTransfers: maxTransfers}

				labels, err := Search(index, query)
				require.NoError(t, err)

				for stopID, byTransfers := range labels {
					assert.NotContains(t, origins, stopID)
					for transfers, travelTime := range byTransfers {
						assert.LessOrEqual(t, travelTime, budget)
						assert.LessOrEqual(t, transfers, maxTransfers)
						assert.Greater(t, travelTime, time.Duration(0))
					}
				}

				again, err := Search(index, query)
				require.NoError(t, err)
				assert.Equal(t, labels, again)

				for _, window := range WindowPresets() {
					window := window
					query.Window = &window

					windowed, err := Search(index, query)
					require.NoError(t, err)

					for stopID := range windowed {
						assert.Contains(t, labels, stopID, "seed %d window %s", seed, window.Name)

						windowedBest, _, _ := windowed.Best(stopID)
						best, _, _ := labels.Best(stopID)
						assert.LessOrEqual(t, best, windowedBest)
					}
				}
			}
		}
	}
}

// exhaustiveLabels relaxes every arrival until nothing changes. It follows the
// same boarding rules as Search without a frontier or explored marks.
func exhaustiveLabels(index *schedule.Index, query Query) Labels {
	origins := map[string]bool{}
	arrivals := map[arrival]time.Duration{}
	for _, stopID := range query.Origins {
		if _, ok := index.Stop(stopID); ok {
			origins[stopID] = true
			arrivals[arrival{stopID: stopID}] = 0
		}
	}

	for changed := true; changed; {
		changed = false

		current := make([]arrival, 0, len(arrivals))
		for key := range arrivals {
			current = append(current, key)
		}

		for _, from := range current {
			travelTime := arrivals[from]

			for _, ref := range index.VisitsByStop(from.stopID) {
				continuing := from.tripID != "" && ref.TripID == from.tripID
				if continuing && ref.Index <= from.position {
					continue
				}

				transfers := from.transfers
				if from.tripID != "" && !continuing {
					transfers++
				}
				if transfers > query.MaxTransfers {
					continue
				}

				visits := index.VisitsByTrip(ref.TripID)
				if !continuing && query.Window != nil && !query.Window.Contains(visits[ref.Index].Departure) {
					continue
				}

				offsets := index.RideOffsets(ref.TripID)
				for i := ref.Index + 1; i < len(visits); i++ {
					reached := travelTime + offsets[i] - offsets[ref.Index]
					if reached > query.Budget {
						break
					}
					if origins[visits[i].StopID] {
						continue
					}

					to := arrival{stopID: visits[i].StopID, transfers: transfers, tripID: ref.TripID, position: i}
					if best, ok := arrivals[to]; !ok || reached < best {
						arrivals[to] = reached
						changed = true
					}
				}
			}
		}
	}

	labels := Labels{}
	for key, travelTime := range arrivals {
		if key.tripID != "" {
			labels.improve(key.stopID, key.transfers, travelTime)
		}
	}
	return labels
}

func TestSearchMatchesExhaustiveRelaxation(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		index, stopIDs := randomIndex(t, seed)
		origins := []string{stopIDs[int(seed)%len(stopIDs)]}

		for _, budget := range []time.Duration{time.Hour, 2 * time.Hour, 5 * time.Hour} {
			for maxTransfers := 0; maxTransfers <= 3; maxTransfers++ {
				query := Query{Origins: origins, Budget: budget, MaxTransfers: maxTransfers}

				labels, err := Search(index, query)
				require.NoError(t, err)
				assert.Equal(t, exhaustiveLabels(index, query), labels, "seed %d budget %s transfers %d", seed, budget, maxTransfers)

				morning, err := ParseWindow("morning")
				require.NoError(t, err)
				query.Window = morning

				labels, err = Search(index, query)
				require.NoError(t, err)
				assert.Equal(t, exhaustiveLabels(index, query), labels, "seed %d budget %s transfers %d morning", seed, budget, maxTransfers)
			}
		}
	}
}

func TestSearchMany(t *testing.T) {
	index := scenarioIndex(t)

	queries := []Query{
		{Origins: []string{"X"}, Budget: 2 * time.Hour},
		{Origins: []string{"X"}, Budget: 40 * time.Minute},
		{Origins: []string{"Y"}, Budget: 2 * time.Hour},
		{Origins: []string{"X"}, Budget: time.Hour, Window: &Window{Start: 2 * time.Hour, End: time.Hour}},
	}

	results := SearchMany(index, queries, 2)
	require.Len(t, results, 4)

	assert.Len(t, results[0].Labels, 2)
	assert.Len(t, results[1].Labels, 1)
	assert.Equal(t, Labels{"Z": {0: 45 * time.Minute}}, results[2].Labels)

	var invalidWindow *InvalidWindowError
	assert.True(t, errors.As(results[3].Err, &invalidWindow))

	for i, result := range results {
		assert.Equal(t, queries[i], result.Query)
	}
}

func TestLabelsOnlyImprove(t *testing.T) {
	labels := Labels{}

	assert.True(t, labels.improve("A", 0, time.Hour))
	assert.False(t, labels.improve("A", 0, 2*time.Hour))
	assert.False(t, labels.improve("A", 0, time.Hour))
	assert.True(t, labels.improve("A", 0, 30*time.Minute))
	assert.True(t, labels.improve("A", 1, 3*time.Hour))

	assert.Equal(t, map[int]time.Duration{0: 30 * time.Minute, 1: 3 * time.Hour}, labels["A"])
	assert.Equal(t, 2, labels.Len())
	assert.Equal(t, []int{0, 1}, labels.TransferCounts("A"))
}

func TestParseWindow(t *testing.T) {
	window, err := ParseWindow("08:00:00-10:30:00")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, window.Start)
	assert.Equal(t, 10*time.Hour+30*time.Minute, window.End)

	window, err = ParseWindow("night")
	require.NoError(t, err)
	assert.Equal(t, "night", window.Name)
	assert.True(t, window.Contains(23*time.Hour))
	assert.False(t, window.Contains(24*time.Hour))

	window, err = ParseWindow("all-day")
	require.NoError(t, err)
	assert.Nil(t, window)

	_, err = ParseWindow("10:00:00-09:00:00")
	var invalidWindow *InvalidWindowError
	assert.True(t, errors.As(err, &invalidWindow))

	_, err = ParseWindow("brunch")
	assert.Error(t, err)
}
