package reachability

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/travigo/reachability/pkg/servicetime"
)

// Unlimited disables the travel time budget.
const Unlimited time.Duration = math.MaxInt64

var (
	ErrInvalidBudget    = errors.New("travel time budget must be positive")
	ErrInvalidTransfers = errors.New("maximum transfers must not be negative")
)

type Query struct {
	Origins      []string
	Budget       time.Duration
	MaxTransfers int

	// Window restricts boardings to departures inside [Start, End) of the day.
	// Nil means any departure is allowed.
	Window *Window

	// HopCost replaces scheduled leg times with a fixed cost per leg when set,
	// turning the search into a plain hop count.
	HopCost time.Duration
}

func (q Query) Validate() error {
	if q.Budget <= 0 {
		return ErrInvalidBudget
	}
	if q.MaxTransfers < 0 {
		return ErrInvalidTransfers
	}
	if q.Window != nil {
		if err := q.Window.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type Window struct {
	Name  string
	Start time.Duration
	End   time.Duration
}

type InvalidWindowError struct {
	Start time.Duration
	End   time.Duration
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid departure window %s-%s", servicetime.Format(e.Start), servicetime.Format(e.End))
}

func (w *Window) Validate() error {
	if w.End <= w.Start || w.Start < 0 || w.End > servicetime.Day {
		return &InvalidWindowError{Start: w.Start, End: w.End}
	}
	return nil
}

// Contains checks a departure against the window. Departures past midnight are
// folded back into the day first.
func (w *Window) Contains(departure time.Duration) bool {
	timeOfDay := servicetime.OfDay(departure)
	return timeOfDay >= w.Start && timeOfDay < w.End
}

func (w *Window) String() string {
	return fmt.Sprintf("%s-%s", servicetime.Format(w.Start), servicetime.Format(w.End))
}

const WindowAllDay = "all-day"

var windowPresets = []Window{
	{Name: "early-morning", Start: 0, End: 6 * time.Hour},
	{Name: "morning", Start: 6 * time.Hour, End: 10 * time.Hour},
	{Name: "midday", Start: 10 * time.Hour, End: 14 * time.Hour},
	{Name: "afternoon", Start: 14 * time.Hour, End: 18 * time.Hour},
	{Name: "late-afternoon", Start: 18 * time.Hour, End: 21 * time.Hour},
	{Name: "night", Start: 21 * time.Hour, End: 24 * time.Hour},
}

// WindowPresets lists the named windows, all-day excluded.
func WindowPresets() []Window {
	presets := make([]Window, len(windowPresets))
	copy(presets, windowPresets)
	return presets
}

// ParseWindow accepts a preset name or an explicit HH:MM:SS-HH:MM:SS range.
// "all-day" and the empty string mean no window.
func ParseWindow(value string) (*Window, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == WindowAllDay {
		return nil, nil
	}

	for _, preset := range windowPresets {
		if preset.Name == value {
			window := preset
			return &window, nil
		}
	}

	bounds := strings.Split(value, "-")
	if len(bounds) != 2 {
		return nil, fmt.Errorf("unknown departure window %q", value)
	}

	start, err := servicetime.Parse(bounds[0])
	if err != nil {
		return nil, err
	}
	end, err := servicetime.Parse(bounds[1])
	if err != nil {
		return nil, err
	}
	if !start.Valid || !end.Valid {
		return nil, fmt.Errorf("departure window %q needs both bounds", value)
	}

	window := &Window{Start: start.Duration, End: end.Duration}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	return window, nil
}
