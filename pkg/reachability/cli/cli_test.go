package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/reachability/pkg/aggregator"
)

func TestWriteDestinations(t *testing.T) {
	destinations := []aggregator.Destination{
		{StopID: "Y", Name: "Astoria", TravelTime: 30 * time.Minute, TravelTimeText: "00:30:00", TravelTimeHours: 0.5},
		{StopID: "Z", Name: "Blaha Lujza tér", TravelTime: 50 * time.Minute, TravelTimeText: "00:50:00", TravelTimeHours: 0.83, Transfers: 1},
	}

	table := &bytes.Buffer{}
	require.NoError(t, writeDestinations(table, "table", destinations))
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TRAVEL TIME")
	assert.Contains(t, lines[2], "00:50:00")

	csv := &bytes.Buffer{}
	require.NoError(t, writeDestinations(csv, "csv", destinations))
	assert.True(t, strings.HasPrefix(csv.String(), "stop_id,stop_name,stop_lat,stop_lon,travel_time,travel_time_hours,transfers\n"))

	json := &bytes.Buffer{}
	require.NoError(t, writeDestinations(json, "json", destinations))
	assert.Contains(t, json.String(), `"StopID": "Y"`)

	assert.Error(t, writeDestinations(&bytes.Buffer{}, "xml", destinations))
}
