package reachability

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/reachability/pkg/schedule"
)

type Result struct {
	Query  Query
	Labels Labels
	Err    error
}

// SearchMany runs independent searches in parallel against one shared index.
// Results are returned in the same order as the queries.
func SearchMany(index *schedule.Index, queries []Query, maxGoroutines int) []Result {
	if maxGoroutines <= 0 {
		maxGoroutines = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(queries))

	p := pool.New().WithMaxGoroutines(maxGoroutines)
	for i, query := range queries {
		i, query := i, query
		p.Go(func() {
			labels, err := Search(index, query)
			results[i] = Result{Query: query, Labels: labels, Err: err}
		})
	}
	p.Wait()

	return results
}
