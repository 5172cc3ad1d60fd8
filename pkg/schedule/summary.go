package schedule

import (
	"github.com/rs/zerolog"
)

type DropReason string

const (
	DropMalformedTime     DropReason = "malformed-time"
	DropMissingTime       DropReason = "missing-time"
	DropUnknownTrip       DropReason = "unknown-trip"
	DropUnknownStop       DropReason = "unknown-stop"
	DropDuplicatePosition DropReason = "duplicate-position"
	DropDuplicateStop     DropReason = "duplicate-stop"
	DropDuplicateTrip     DropReason = "duplicate-trip"
)

// BuildSummary reports what Build kept and what it had to throw away.
type BuildSummary struct {
	Stops  int
	Trips  int
	Visits int

	Dropped   map[DropReason]int
	Anomalies []*ScheduleAnomalyError
}

func newBuildSummary() *BuildSummary {
	return &BuildSummary{
		Dropped: map[DropReason]int{},
	}
}

func (s *BuildSummary) drop(reason DropReason) {
	s.Dropped[reason]++
}

func (s *BuildSummary) DroppedTotal() int {
	total := 0
	for _, count := range s.Dropped {
		total += count
	}
	return total
}

func (s *BuildSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Int("stops", s.Stops).
		Int("trips", s.Trips).
		Int("visits", s.Visits).
		Int("dropped", s.DroppedTotal()).
		Int("anomalous_trips", len(s.Anomalies))
}
