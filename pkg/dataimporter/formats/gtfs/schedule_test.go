package gtfs

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFeed = map[string]string{
	"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
		"BKK,Budapesti Közlekedési Központ,https://bkk.hu,Europe/Budapest\n",
	"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
		"X,Deák Ferenc tér,47.4977,19.0544\n" +
		"Y,Astoria,47.4935,19.0605\n" +
		"Z,Blaha Lujza tér,47.4966,19.0704\n",
	"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
		"M2,BKK,M2,,1\n",
	// extra unknown column and a short row are tolerated
	"trips.txt": "route_id,service_id,trip_id,trip_headsign,wheelchair_accessible\n" +
		"M2,weekday,trip-1,Örs vezér tere,1\n" +
		"M2,weekday,trip-2\n",
	"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"trip-1,08:00:00,08:00:00,X,1\n" +
		"trip-1,08:30:00,08:30:00,Y,2\n" +
		"trip-1,08:31:00,08:31:00,Y,2\n" +
		"trip-1,09:15:00,09:15:00,Z,3\n" +
		"trip-2,23:50:00,23:50:00,Z,1\n" +
		"trip-2,24:10:00,24:10:00,X,2\n",
}

func zipFeed(t *testing.T, files map[string]string, prefix string) []byte {
	t.Helper()

	buffer := &bytes.Buffer{}
	writer := zip.NewWriter(buffer)
	for name, content := range files {
		file, err := writer.Create(prefix + name)
		require.NoError(t, err)
		_, err = file.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return buffer.Bytes()
}

func TestParseZipReader(t *testing.T) {
	body := zipFeed(t, testFeed, "")

	feed, err := ParseZipReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	assert.Len(t, feed.Agencies, 1)
	assert.Len(t, feed.Stops, 3)
	assert.Len(t, feed.Routes, 1)
	assert.Len(t, feed.Trips, 2)
	assert.Len(t, feed.StopTimes, 6)

	assert.Equal(t, "Astoria", feed.Stops[1].Name)
	assert.Equal(t, 47.4935, feed.Stops[1].Latitude)
	assert.Equal(t, "", feed.Trips[1].Headsign)
}

func TestParseZipWithFolder(t *testing.T) {
	body := zipFeed(t, testFeed, "feed/")

	feed, err := ParseZipReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	assert.Len(t, feed.StopTimes, 6)
}

func TestParseMissingFiles(t *testing.T) {
	body := zipFeed(t, map[string]string{"stops.txt": testFeed["stops.txt"]}, "")

	_, err := ParseZipReader(bytes.NewReader(body), int64(len(body)))
	assert.ErrorContains(t, err, "trips.txt, stop_times.txt")
}

func TestParseDirectory(t *testing.T) {
	directory := t.TempDir()
	for name, content := range testFeed {
		require.NoError(t, os.WriteFile(filepath.Join(directory, name), []byte(content), 0644))
	}

	feed, err := Parse(directory)
	require.NoError(t, err)
	assert.Len(t, feed.Trips, 2)

	zipPath := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(zipPath, zipFeed(t, testFeed, ""), 0644))

	zipped, err := Parse(zipPath)
	require.NoError(t, err)
	assert.Equal(t, feed.StopTimes, zipped.StopTimes)
}

func TestScheduleRecords(t *testing.T) {
	body := zipFeed(t, testFeed, "")
	feed, err := ParseZipReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	stops, trips, visits := feed.ScheduleRecords()
	assert.Len(t, stops, 3)
	require.Len(t, trips, 2)
	assert.Equal(t, "Örs vezér tere", trips[0].Headsign)
	assert.Equal(t, "M2", trips[1].Headsign)

	require.Len(t, visits, 5)
	assert.Equal(t, "08:30:00", visits[1].ArrivalTime)
	assert.Equal(t, 3, visits[2].Position)

	index, summary := feed.BuildIndex()
	assert.Equal(t, 0, summary.DroppedTotal())
	assert.Equal(t, []time.Duration{30 * time.Minute, 45 * time.Minute}, index.Legs("trip-1"))
	assert.Equal(t, []time.Duration{20 * time.Minute}, index.Legs("trip-2"))
}

func TestTripDurations(t *testing.T) {
	body := zipFeed(t, testFeed, "")
	feed, err := ParseZipReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	durations := feed.TripDurations()
	assert.Equal(t, 75*time.Minute, durations["trip-1"].Duration)
	assert.Equal(t, 20*time.Minute, durations["trip-2"].Duration)
}
