package calculator

import (
	"time"

	"github.com/travigo/reachability/pkg/servicetime"
)

// CountBy groups items by key and counts each group. Empty keys are counted
// under "unknown".
func CountBy[T any](items []T, key func(T) string) map[string]int {
	countMap := map[string]int{}

	for _, item := range items {
		group := key(item)
		if group == "" {
			group = "unknown"
		}
		countMap[group]++
	}

	return countMap
}

type DurationSummary struct {
	Count   int
	Average string
	Minimum string
	Maximum string
}

func summariseDurations(durations []time.Duration) DurationSummary {
	summary := DurationSummary{Count: len(durations)}
	if len(durations) == 0 {
		return summary
	}

	minimum, maximum := durations[0], durations[0]
	var total time.Duration
	for _, duration := range durations {
		total += duration
		minimum = min(minimum, duration)
		maximum = max(maximum, duration)
	}

	average := total / time.Duration(len(durations))
	summary.Average = servicetime.Format(average.Round(time.Second))
	summary.Minimum = servicetime.Format(minimum)
	summary.Maximum = servicetime.Format(maximum)

	return summary
}
