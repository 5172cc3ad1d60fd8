package schedule

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/servicetime"
	"golang.org/x/exp/slices"
)

// Index is the read-only timetable the search runs against. Nothing mutates it
// once Build has returned so it can be shared between concurrent searches.
type Index struct {
	stops   map[string]Stop
	stopIDs []string

	trips   map[string]Trip
	tripIDs []string

	tripVisits  map[string][]StopVisit
	tripLegs    map[string][]time.Duration
	tripDwells  map[string][]time.Duration
	tripOffsets map[string][]time.Duration

	stopVisits map[string][]StopTripRef
}

func Build(stops []Stop, trips []Trip, visits []RawStopVisit) (*Index, *BuildSummary) {
	summary := newBuildSummary()

	index := &Index{
		stops:       map[string]Stop{},
		trips:       map[string]Trip{},
		tripVisits:  map[string][]StopVisit{},
		tripLegs:    map[string][]time.Duration{},
		tripDwells:  map[string][]time.Duration{},
		tripOffsets: map[string][]time.Duration{},
		stopVisits:  map[string][]StopTripRef{},
	}

	for _, stop := range stops {
		if _, exists := index.stops[stop.ID]; exists {
			summary.drop(DropDuplicateStop)
			continue
		}
		index.stops[stop.ID] = stop
	}

	for _, trip := range trips {
		if _, exists := index.trips[trip.ID]; exists {
			summary.drop(DropDuplicateTrip)
			continue
		}
		index.trips[trip.ID] = trip
	}

	for _, raw := range visits {
		if _, exists := index.trips[raw.TripID]; !exists {
			summary.drop(DropUnknownTrip)
			continue
		}
		if _, exists := index.stops[raw.StopID]; !exists {
			summary.drop(DropUnknownStop)
			continue
		}

		arrival, arrivalErr := servicetime.Parse(raw.ArrivalTime)
		departure, departureErr := servicetime.Parse(raw.DepartureTime)
		if err := errors.Join(arrivalErr, departureErr); err != nil {
			log.Debug().Err(err).Str("trip", raw.TripID).Int("position", raw.Position).Msg("Dropping stop visit")
			summary.drop(DropMalformedTime)
			continue
		}
		if !arrival.Valid || !departure.Valid {
			summary.drop(DropMissingTime)
			continue
		}

		index.tripVisits[raw.TripID] = append(index.tripVisits[raw.TripID], StopVisit{
			TripID:    raw.TripID,
			StopID:    raw.StopID,
			Position:  raw.Position,
			Arrival:   arrival.Duration,
			Departure: departure.Duration,
		})
	}

	for tripID, tripVisits := range index.tripVisits {
		slices.SortStableFunc(tripVisits, func(a, b StopVisit) int {
			return a.Position - b.Position
		})

		ordered := tripVisits[:0]
		for _, visit := range tripVisits {
			if len(ordered) > 0 && ordered[len(ordered)-1].Position == visit.Position {
				summary.drop(DropDuplicatePosition)
				continue
			}
			ordered = append(ordered, visit)
		}

		legs, dwells, anomaly := timings(ordered)
		if anomaly != nil {
			log.Warn().Err(anomaly).Str("trip", tripID).Msg("Excluding trip from schedule index")
			summary.Anomalies = append(summary.Anomalies, anomaly)

			delete(index.tripVisits, tripID)
			delete(index.trips, tripID)
			continue
		}

		index.tripVisits[tripID] = ordered
		index.tripLegs[tripID] = legs
		index.tripDwells[tripID] = dwells

		offsets := make([]time.Duration, len(ordered))
		for n, leg := range legs {
			offsets[n+1] = offsets[n] + leg
		}
		index.tripOffsets[tripID] = offsets
	}

	for tripID, tripVisits := range index.tripVisits {
		for i, visit := range tripVisits {
			index.stopVisits[visit.StopID] = append(index.stopVisits[visit.StopID], StopTripRef{
				TripID:   tripID,
				Position: visit.Position,
				Index:    i,
			})
		}
	}
	for _, refs := range index.stopVisits {
		slices.SortFunc(refs, func(a, b StopTripRef) int {
			if c := strings.Compare(a.TripID, b.TripID); c != 0 {
				return c
			}
			return a.Index - b.Index
		})
	}

	for stopID := range index.stops {
		index.stopIDs = append(index.stopIDs, stopID)
	}
	slices.Sort(index.stopIDs)

	for tripID := range index.trips {
		index.tripIDs = append(index.tripIDs, tripID)
		summary.Visits += len(index.tripVisits[tripID])
	}
	slices.Sort(index.tripIDs)

	summary.Stops = len(index.stops)
	summary.Trips = len(index.trips)

	for reason, count := range summary.Dropped {
		log.Info().Str("reason", string(reason)).Int("count", count).Msg("Dropped schedule records")
	}
	log.Info().EmbedObject(summary).Msg("Built schedule index")

	return index, summary
}

// timings returns the in-vehicle time of each leg (next arrival minus current
// departure) and the dwell at each visit. Any negative value is an anomaly.
func timings(visits []StopVisit) ([]time.Duration, []time.Duration, *ScheduleAnomalyError) {
	dwells := make([]time.Duration, len(visits))
	legs := make([]time.Duration, 0, len(visits))

	for i, visit := range visits {
		dwell := visit.Departure - visit.Arrival
		if dwell < 0 {
			return nil, nil, &ScheduleAnomalyError{TripID: visit.TripID, Position: visit.Position, Kind: AnomalyNegativeDwell, Value: dwell}
		}
		dwells[i] = dwell

		if i+1 < len(visits) {
			leg := visits[i+1].Arrival - visit.Departure
			if leg < 0 {
				return nil, nil, &ScheduleAnomalyError{TripID: visit.TripID, Position: visit.Position, Kind: AnomalyNegativeLeg, Value: leg}
			}
			legs = append(legs, leg)
		}
	}

	return legs, dwells, nil
}

func (i *Index) Stop(id string) (Stop, bool) {
	stop, ok := i.stops[id]
	return stop, ok
}

func (i *Index) Trip(id string) (Trip, bool) {
	trip, ok := i.trips[id]
	return trip, ok
}

// Stops returns every stop ordered by ID.
func (i *Index) Stops() []Stop {
	stops := make([]Stop, 0, len(i.stopIDs))
	for _, id := range i.stopIDs {
		stops = append(stops, i.stops[id])
	}
	return stops
}

func (i *Index) TripIDs() []string {
	return i.tripIDs
}

func (i *Index) VisitsByStop(stopID string) []StopTripRef {
	return i.stopVisits[stopID]
}

func (i *Index) VisitsByTrip(tripID string) []StopVisit {
	return i.tripVisits[tripID]
}

// Legs returns len(VisitsByTrip)-1 leg durations, Legs[n] being the time from
// visit n to visit n+1.
func (i *Index) Legs(tripID string) []time.Duration {
	return i.tripLegs[tripID]
}

// RideOffsets returns the cumulative in-vehicle time from the first visit of the
// trip to each visit, dwell excluded.
func (i *Index) RideOffsets(tripID string) []time.Duration {
	return i.tripOffsets[tripID]
}

func (i *Index) Dwells(tripID string) []time.Duration {
	return i.tripDwells[tripID]
}

// FindStopsByName matches stop names case-insensitively by substring. Several
// stops commonly share a city name so the result is a set, and no match is
// simply an empty set.
func (i *Index) FindStopsByName(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []string{}
	}

	matches := []string{}
	for _, id := range i.stopIDs {
		if strings.Contains(strings.ToLower(i.stops[id].Name), query) {
			matches = append(matches, id)
		}
	}
	return matches
}
