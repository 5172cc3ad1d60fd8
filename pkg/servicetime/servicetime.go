package servicetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const Day = 24 * time.Hour

// Offset is a point in a service day measured from its start. Offsets above 24h
// represent service running past midnight. An Offset with Valid false means the
// source had no time at all.
type Offset struct {
	Duration time.Duration
	Valid    bool
}

type MalformedTimeError struct {
	Input  string
	Reason string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed service time %q: %s", e.Input, e.Reason)
}

// Parse converts a GTFS style HH:MM:SS string into an Offset. Hours are additive
// past 23 so "25:30:00" is 25h30m. Blank input is not an error and returns an
// invalid Offset.
func Parse(value string) (Offset, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Offset{}, nil
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return Offset{}, &MalformedTimeError{Input: value, Reason: "expected HH:MM:SS"}
	}

	var fields [3]int
	for i, part := range parts {
		if part == "" {
			return Offset{}, &MalformedTimeError{Input: value, Reason: "empty component"}
		}

		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Offset{}, &MalformedTimeError{Input: value, Reason: "non-numeric component"}
		}
		fields[i] = n
	}

	if fields[1] >= 60 || fields[2] >= 60 {
		return Offset{}, &MalformedTimeError{Input: value, Reason: "minutes and seconds must be below 60"}
	}

	duration := time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second

	return Offset{Duration: duration, Valid: true}, nil
}

// MustParse is Parse for literals in tests and presets.
func MustParse(value string) time.Duration {
	offset, err := Parse(value)
	if err != nil {
		panic(err)
	}
	if !offset.Valid {
		panic(fmt.Sprintf("servicetime: empty literal %q", value))
	}

	return offset.Duration
}

// OfDay folds an offset into a single day, so 25:30:00 becomes 01:30:00.
func OfDay(d time.Duration) time.Duration {
	d = d % Day
	if d < 0 {
		d += Day
	}
	return d
}

// Format renders a duration as HH:MM:SS without wrapping hours at 24.
func Format(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, minutes, seconds)
}
