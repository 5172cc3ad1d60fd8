package reachability

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/schedule"
)

// routeMark identifies one way of riding a trip: which trip the rider came off
// and how many changes they have made so far.
type routeMark struct {
	previousTripID string
	tripID         string
	transfers      int
}

type search struct {
	index *schedule.Index
	query Query

	origins  map[string]bool
	labels   Labels
	arrivals map[arrival]time.Duration
	frontier frontier

	explored map[routeMark][]boarding
}

type boarding struct {
	index      int
	travelTime time.Duration
}

// Search finds every stop reachable from the query origins within its budget
// and transfer limit. All state lives for this call only, so concurrent calls
// against the same index are safe.
func Search(index *schedule.Index, query Query) (Labels, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s := &search{
		index:    index,
		query:    query,
		origins:  map[string]bool{},
		labels:   Labels{},
		arrivals: map[arrival]time.Duration{},
		explored: map[routeMark][]boarding{},
	}

	for _, stopID := range query.Origins {
		if _, ok := index.Stop(stopID); !ok {
			log.Debug().Str("stop", stopID).Msg("Ignoring unknown origin stop")
			continue
		}
		if s.origins[stopID] {
			continue
		}

		s.origins[stopID] = true
		s.arrive(frontierEntry{stopID: stopID})
	}

	s.run()

	return s.labels, nil
}

func (s *search) run() {
	for !s.frontier.empty() {
		entry := s.frontier.pop()

		if entry.transfers > s.query.MaxTransfers || entry.travelTime > s.query.Budget {
			continue
		}

		if best := s.arrivals[entry.arrival()]; best < entry.travelTime {
			continue
		}

		s.expand(entry)
	}
}

func (s *search) expand(entry frontierEntry) {
	for _, ref := range s.index.VisitsByStop(entry.stopID) {
		// A later visit of the arrival trip is the same vehicle coming round
		// again. Visits up to the arrival one were already passed on this ride.
		continuing := entry.tripID != "" && ref.TripID == entry.tripID
		if continuing && ref.Index <= entry.position {
			continue
		}

		transfers := entry.transfers
		if entry.tripID != "" && !continuing {
			transfers++
		}
		if transfers > s.query.MaxTransfers {
			continue
		}

		visits := s.index.VisitsByTrip(ref.TripID)

		// the window applies where the vehicle was boarded, not where it is rejoined
		if !continuing && s.query.Window != nil && !s.query.Window.Contains(visits[ref.Index].Departure) {
			continue
		}

		mark := routeMark{previousTripID: entry.tripID, tripID: ref.TripID, transfers: transfers}
		if s.covered(mark, ref, entry.travelTime) {
			continue
		}
		s.explored[mark] = append(s.explored[mark], boarding{index: ref.Index, travelTime: entry.travelTime})

		s.ride(ref, visits, entry.travelTime, transfers)
	}
}

// covered reports whether an earlier ride of the same trip under the same mark
// boarded at or before this visit and passed it no later than now. Everything
// this boarding could label would then already carry an equal or better time.
func (s *search) covered(mark routeMark, ref schedule.StopTripRef, travelTime time.Duration) bool {
	for _, previous := range s.explored[mark] {
		if previous.index > ref.Index {
			continue
		}

		passed := previous.travelTime + s.rideTime(ref.TripID, previous.index, ref.Index)
		if passed <= travelTime {
			return true
		}
	}
	return false
}

func (s *search) rideTime(tripID string, from int, to int) time.Duration {
	if s.query.HopCost > 0 {
		return time.Duration(to-from) * s.query.HopCost
	}

	offsets := s.index.RideOffsets(tripID)
	return offsets[to] - offsets[from]
}

// ride walks a trip from the boarding visit to its end, labelling each stop
// passed. Leg times are never negative so once the budget is exceeded nothing
// further along the trip can qualify.
func (s *search) ride(ref schedule.StopTripRef, visits []schedule.StopVisit, travelTime time.Duration, transfers int) {
	legs := s.index.Legs(ref.TripID)

	for i := ref.Index + 1; i < len(visits); i++ {
		leg := legs[i-1]
		if s.query.HopCost > 0 {
			leg = s.query.HopCost
		}

		travelTime += leg
		if travelTime > s.query.Budget {
			return
		}

		stopID := visits[i].StopID
		if s.origins[stopID] {
			continue
		}

		s.labels.improve(stopID, transfers, travelTime)
		s.arrive(frontierEntry{
			stopID:     stopID,
			transfers:  transfers,
			travelTime: travelTime,
			tripID:     ref.TripID,
			position:   i,
		})
	}
}

// arrive queues the entry unless the same arrival is already known at an equal
// or better time. A stop's label only keeps the fastest time per transfer count,
// but a slower arrival on another trip can still be continued without a change.
func (s *search) arrive(entry frontierEntry) {
	key := entry.arrival()
	if best, ok := s.arrivals[key]; ok && best <= entry.travelTime {
		return
	}

	s.arrivals[key] = entry.travelTime
	s.frontier.push(entry)
}
