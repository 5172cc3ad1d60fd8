package aggregator

import (
	"fmt"
	"math"
	"time"

	"github.com/expr-lang/expr"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/reachability"
	"github.com/travigo/reachability/pkg/schedule"
	"github.com/travigo/reachability/pkg/servicetime"
	"golang.org/x/exp/slices"
)

type Destination struct {
	StopID    string  `groups:"basic,detailed" csv:"stop_id"`
	Name      string  `groups:"basic,detailed" csv:"stop_name"`
	Latitude  float64 `groups:"detailed" csv:"stop_lat"`
	Longitude float64 `groups:"detailed" csv:"stop_lon"`

	TravelTime      time.Duration `groups:"detailed" csv:"-"`
	TravelTimeText  string        `groups:"basic,detailed" csv:"travel_time"`
	TravelTimeHours float64       `groups:"basic,detailed" csv:"travel_time_hours"`
	Transfers       int           `groups:"basic,detailed" csv:"transfers"`
}

// Aggregate turns search labels into flat destination records ordered by
// travel time, then transfers, then stop ID.
func Aggregate(index *schedule.Index, labels reachability.Labels, policy Policy) ([]Destination, error) {
	destinations := []Destination{}

	switch policy {
	case PolicyBestOverall:
		for _, stopID := range labels.StopIDs() {
			travelTime, transfers, ok := labels.Best(stopID)
			if !ok {
				continue
			}
			destinations = append(destinations, newDestination(index, stopID, travelTime, transfers))
		}
	case PolicyBestPerTransferCount:
		for _, stopID := range labels.StopIDs() {
			for _, transfers := range labels.TransferCounts(stopID) {
				destinations = append(destinations, newDestination(index, stopID, labels[stopID][transfers], transfers))
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	slices.SortStableFunc(destinations, compareDestinations)

	return destinations, nil
}

func compareDestinations(a, b Destination) int {
	if a.TravelTime != b.TravelTime {
		if a.TravelTime < b.TravelTime {
			return -1
		}
		return 1
	}
	if a.Transfers != b.Transfers {
		return a.Transfers - b.Transfers
	}
	switch {
	case a.StopID < b.StopID:
		return -1
	case a.StopID > b.StopID:
		return 1
	}
	return 0
}

func newDestination(index *schedule.Index, stopID string, travelTime time.Duration, transfers int) Destination {
	destination := Destination{StopID: stopID}

	if stop, ok := index.Stop(stopID); ok {
		if err := copier.CopyWithOption(&destination, stop, copier.Option{IgnoreEmpty: true}); err != nil {
			log.Error().Err(err).Str("stop", stopID).Msg("Failed to copy stop details")
		}
		destination.StopID = stop.ID
	}

	destination.TravelTime = travelTime
	destination.TravelTimeText = servicetime.Format(travelTime)
	destination.TravelTimeHours = math.Round(travelTime.Hours()*100) / 100
	destination.Transfers = transfers

	return destination
}

// Filter keeps the destinations matching a boolean expression over the
// Destination fields, eg. `TravelTimeHours < 2 && Transfers == 0`.
// An empty expression keeps everything.
func Filter(destinations []Destination, expression string) ([]Destination, error) {
	if expression == "" {
		return destinations, nil
	}

	program, err := expr.Compile(expression, expr.Env(Destination{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter: %w", err)
	}

	filtered := []Destination{}
	for _, destination := range destinations {
		output, err := expr.Run(program, destination)
		if err != nil {
			return nil, fmt.Errorf("running filter on stop %s: %w", destination.StopID, err)
		}

		if matched, _ := output.(bool); matched {
			filtered = append(filtered, destination)
		}
	}

	return filtered, nil
}
