package schedule

import (
	"fmt"
	"time"
)

type Stop struct {
	ID        string  `groups:"basic,detailed"`
	Name      string  `groups:"basic,detailed"`
	Latitude  float64 `groups:"basic,detailed"`
	Longitude float64 `groups:"basic,detailed"`
}

type Trip struct {
	ID       string
	RouteID  string
	Headsign string
}

// RawStopVisit is a stop_times row as it arrives from the feed, before its times
// have been normalised.
type RawStopVisit struct {
	TripID        string
	StopID        string
	Position      int
	ArrivalTime   string
	DepartureTime string
}

type StopVisit struct {
	TripID    string
	StopID    string
	Position  int
	Arrival   time.Duration
	Departure time.Duration
}

// StopTripRef points at one visit of a trip to a stop. Index is the offset into
// the slice returned by VisitsByTrip.
type StopTripRef struct {
	TripID   string
	Position int
	Index    int
}

type AnomalyKind string

const (
	AnomalyNegativeLeg   AnomalyKind = "negative-leg"
	AnomalyNegativeDwell AnomalyKind = "negative-dwell"
)

type ScheduleAnomalyError struct {
	TripID   string
	Position int
	Kind     AnomalyKind
	Value    time.Duration
}

func (e *ScheduleAnomalyError) Error() string {
	return fmt.Sprintf("trip %s has a %s of %s at position %d", e.TripID, e.Kind, e.Value, e.Position)
}
