package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/schedule"
	"github.com/travigo/reachability/pkg/servicetime"
)

type Schedule struct {
	Agencies  []Agency
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
}

func init() {
	// Allow us to ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		return r
	})
}

func (g *Schedule) fileMap() map[string]interface{} {
	return map[string]interface{}{
		"agency.txt":     &g.Agencies,
		"stops.txt":      &g.Stops,
		"routes.txt":     &g.Routes,
		"trips.txt":      &g.Trips,
		"stop_times.txt": &g.StopTimes,
	}
}

// ParseZip reads a zipped GTFS feed from disk.
func ParseZip(path string) (*Schedule, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	return parseArchive(&archive.Reader)
}

func ParseZipReader(reader io.ReaderAt, size int64) (*Schedule, error) {
	archive, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, err
	}

	return parseArchive(archive)
}

func parseArchive(archive *zip.Reader) (*Schedule, error) {
	g := &Schedule{}
	fileMap := g.fileMap()

	for _, zipFile := range archive.File {
		// Some feeds are zipped with a containing folder
		fileName := filepath.Base(zipFile.Name)

		destination, exists := fileMap[fileName]
		if !exists {
			log.Debug().Str("file", zipFile.Name).Msg("Ignoring gtfs file")
			continue
		}

		if err := g.parseZipFile(zipFile, destination); err != nil {
			return nil, err
		}
	}

	if err := g.validate(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Schedule) parseZipFile(zipFile *zip.File, destination interface{}) error {
	log.Info().Str("file", zipFile.Name).Msg("Loading file")

	file, err := zipFile.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.Unmarshal(file, destination); err != nil {
		log.Error().Str("file", zipFile.Name).Err(err).Msg("Failed to parse csv file")
		return fmt.Errorf("parsing %s: %w", zipFile.Name, err)
	}

	return nil
}

// ParseDirectory reads an unzipped GTFS feed.
func ParseDirectory(directory string) (*Schedule, error) {
	g := &Schedule{}

	for fileName, destination := range g.fileMap() {
		path := filepath.Join(directory, fileName)

		file, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Info().Str("file", path).Msg("Loading file")
		err = gocsv.UnmarshalFile(file, destination)
		file.Close()
		if err != nil {
			log.Error().Str("file", path).Err(err).Msg("Failed to parse csv file")
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := g.validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// Parse picks the zip or directory reader based on what path points at.
func Parse(path string) (*Schedule, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if fileInfo.IsDir() {
		return ParseDirectory(path)
	}
	return ParseZip(path)
}

func (g *Schedule) validate() error {
	var missing []string
	if len(g.Stops) == 0 {
		missing = append(missing, "stops.txt")
	}
	if len(g.Trips) == 0 {
		missing = append(missing, "trips.txt")
	}
	if len(g.StopTimes) == 0 {
		missing = append(missing, "stop_times.txt")
	}

	if len(missing) > 0 {
		return fmt.Errorf("gtfs feed is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ScheduleRecords converts the feed into index input. Stop times repeating a
// (trip, stop_sequence) pair are collapsed to the first occurrence.
func (g *Schedule) ScheduleRecords() ([]schedule.Stop, []schedule.Trip, []schedule.RawStopVisit) {
	stops := make([]schedule.Stop, 0, len(g.Stops))
	for _, stop := range g.Stops {
		stops = append(stops, schedule.Stop{
			ID:        stop.ID,
			Name:      stop.Name,
			Latitude:  stop.Latitude,
			Longitude: stop.Longitude,
		})
	}

	routeNames := map[string]string{}
	for _, route := range g.Routes {
		routeNames[route.ID] = route.ShortName
		if route.ShortName == "" {
			routeNames[route.ID] = route.LongName
		}
	}

	trips := make([]schedule.Trip, 0, len(g.Trips))
	for _, trip := range g.Trips {
		headsign := trip.Headsign
		if headsign == "" {
			headsign = routeNames[trip.RouteID]
		}

		trips = append(trips, schedule.Trip{
			ID:       trip.ID,
			RouteID:  trip.RouteID,
			Headsign: headsign,
		})
	}

	type visitKey struct {
		tripID   string
		sequence int
	}
	seen := map[visitKey]bool{}
	duplicates := 0

	visits := make([]schedule.RawStopVisit, 0, len(g.StopTimes))
	for _, stopTime := range g.StopTimes {
		key := visitKey{tripID: stopTime.TripID, sequence: stopTime.StopSequence}
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true

		visits = append(visits, schedule.RawStopVisit{
			TripID:        stopTime.TripID,
			StopID:        stopTime.StopID,
			Position:      stopTime.StopSequence,
			ArrivalTime:   stopTime.ArrivalTime,
			DepartureTime: stopTime.DepartureTime,
		})
	}

	if duplicates > 0 {
		log.Info().Int("count", duplicates).Msg("Collapsed duplicate stop times")
	}

	return stops, trips, visits
}

// BuildIndex converts the feed and builds the search index from it.
func (g *Schedule) BuildIndex() (*schedule.Index, *schedule.BuildSummary) {
	return schedule.Build(g.ScheduleRecords())
}

// TripDurations gives the scheduled end to end time of every trip with at
// least two timed stops.
func (g *Schedule) TripDurations() map[string]servicetime.Offset {
	first := map[string]StopTime{}
	last := map[string]StopTime{}

	for _, stopTime := range g.StopTimes {
		if current, ok := first[stopTime.TripID]; !ok || stopTime.StopSequence < current.StopSequence {
			first[stopTime.TripID] = stopTime
		}
		if current, ok := last[stopTime.TripID]; !ok || stopTime.StopSequence > current.StopSequence {
			last[stopTime.TripID] = stopTime
		}
	}

	durations := map[string]servicetime.Offset{}
	for tripID, start := range first {
		end := last[tripID]
		if start.StopSequence == end.StopSequence {
			continue
		}

		departure, err := servicetime.Parse(start.DepartureTime)
		if err != nil || !departure.Valid {
			continue
		}
		arrival, err := servicetime.Parse(end.ArrivalTime)
		if err != nil || !arrival.Valid {
			continue
		}

		durations[tripID] = servicetime.Offset{Duration: arrival.Duration - departure.Duration, Valid: true}
	}

	return durations
}
