package precompute

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/aggregator"
	"github.com/travigo/reachability/pkg/metrics"
	"github.com/travigo/reachability/pkg/reachability"
	"github.com/travigo/reachability/pkg/schedule"
)

type Record struct {
	Dataset    string `csv:"dataset" bson:"dataset"`
	Origin     string `csv:"origin_stop_id" bson:"origin"`
	OriginName string `csv:"origin_stop_name" bson:"originname"`
	Window     string `csv:"window" bson:"window"`
	Policy     string `csv:"policy" bson:"policy"`

	Destination     string  `csv:"destination_stop_id" bson:"destination"`
	DestinationName string  `csv:"destination_stop_name" bson:"destinationname"`
	Latitude        float64 `csv:"destination_lat" bson:"latitude"`
	Longitude       float64 `csv:"destination_lon" bson:"longitude"`

	TravelTime        string  `csv:"travel_time" bson:"traveltime"`
	TravelTimeSeconds int64   `csv:"travel_time_seconds" bson:"traveltimeseconds"`
	TravelTimeHours   float64 `csv:"travel_time_hours" bson:"traveltimehours"`
	Transfers         int     `csv:"transfers" bson:"transfers"`

	ComputedAt time.Time `csv:"-" bson:"computedat"`
}

// Run executes every search of the plan in parallel and flattens the results
// into records. Failed searches are logged and reported together.
func Run(index *schedule.Index, plan Plan, collector *metrics.Collector) ([]Record, error) {
	if len(plan.Origins) == 0 {
		return nil, ErrEmptyPlan
	}
	if _, err := aggregator.ParsePolicy(string(plan.Policy)); err != nil {
		return nil, err
	}

	queries := plan.queries()
	log.Info().
		Int("origins", len(plan.Origins)).
		Int("windows", len(plan.windows())).
		Int("searches", len(queries)).
		Msg("Starting precompute")

	started := time.Now()
	results := reachability.SearchMany(index, queries, plan.MaxGoroutines)

	records := []Record{}
	var errs []error
	computedAt := time.Now()

	for _, result := range results {
		origin := result.Query.Origins[0]
		window := windowName(result.Query.Window)

		if result.Err != nil {
			log.Error().Err(result.Err).Str("origin", origin).Str("window", window).Msg("Precompute search failed")
			errs = append(errs, fmt.Errorf("origin %s window %s: %w", origin, window, result.Err))
			continue
		}

		destinations, err := aggregator.Aggregate(index, result.Labels, plan.Policy)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		originName := ""
		if stop, ok := index.Stop(origin); ok {
			originName = stop.Name
		}

		for _, destination := range destinations {
			records = append(records, Record{
				Dataset:           plan.Dataset,
				Origin:            origin,
				OriginName:        originName,
				Window:            window,
				Policy:            string(plan.Policy),
				Destination:       destination.StopID,
				DestinationName:   destination.Name,
				Latitude:          destination.Latitude,
				Longitude:         destination.Longitude,
				TravelTime:        destination.TravelTimeText,
				TravelTimeSeconds: int64(destination.TravelTime.Seconds()),
				TravelTimeHours:   destination.TravelTimeHours,
				Transfers:         destination.Transfers,
				ComputedAt:        computedAt,
			})
		}
	}

	if collector != nil {
		collector.PrecomputedOrigins.Add(float64(len(plan.Origins)))
		collector.PrecomputedRecords.Add(float64(len(records)))
	}

	log.Info().
		Int("records", len(records)).
		Dur("duration", time.Since(started)).
		Msg("Finished precompute")

	return records, errors.Join(errs...)
}

func WriteCSV(writer io.Writer, records []Record) error {
	return gocsv.Marshal(records, writer)
}
