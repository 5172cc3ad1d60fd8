package precompute

import (
	"errors"
	"time"

	"github.com/travigo/reachability/pkg/aggregator"
	"github.com/travigo/reachability/pkg/reachability"
)

var ErrEmptyPlan = errors.New("precompute plan has no origins")

// Plan describes a batch of searches: every origin is searched once per window.
type Plan struct {
	Dataset string

	Origins      []string
	Windows      []*reachability.Window
	Budget       time.Duration
	MaxTransfers int
	Policy       aggregator.Policy

	MaxGoroutines int
}

// AllWindows is every named window plus the unrestricted all-day search.
func AllWindows() []*reachability.Window {
	windows := []*reachability.Window{nil}
	for _, preset := range reachability.WindowPresets() {
		preset := preset
		windows = append(windows, &preset)
	}
	return windows
}

func (p Plan) windows() []*reachability.Window {
	if len(p.Windows) == 0 {
		return []*reachability.Window{nil}
	}
	return p.Windows
}

func windowName(window *reachability.Window) string {
	if window == nil {
		return reachability.WindowAllDay
	}
	if window.Name != "" {
		return window.Name
	}
	return window.String()
}

func (p Plan) queries() []reachability.Query {
	queries := []reachability.Query{}
	for _, origin := range p.Origins {
		for _, window := range p.windows() {
			queries = append(queries, reachability.Query{
				Origins:      []string{origin},
				Budget:       p.Budget,
				MaxTransfers: p.MaxTransfers,
				Window:       window,
			})
		}
	}
	return queries
}
