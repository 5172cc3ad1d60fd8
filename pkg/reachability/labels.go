package reachability

import (
	"time"

	"golang.org/x/exp/slices"
)

// Labels holds the best travel time found for each stop at each transfer count.
type Labels map[string]map[int]time.Duration

func (l Labels) get(stopID string, transfers int) (time.Duration, bool) {
	byTransfers, ok := l[stopID]
	if !ok {
		return 0, false
	}
	travelTime, ok := byTransfers[transfers]
	return travelTime, ok
}

// improve installs the label if it is new or strictly faster.
func (l Labels) improve(stopID string, transfers int, travelTime time.Duration) bool {
	current, ok := l.get(stopID, transfers)
	if ok && travelTime >= current {
		return false
	}

	if l[stopID] == nil {
		l[stopID] = map[int]time.Duration{}
	}
	l[stopID][transfers] = travelTime
	return true
}

// Best returns the fastest label for a stop, preferring fewer transfers on ties.
func (l Labels) Best(stopID string) (time.Duration, int, bool) {
	byTransfers, ok := l[stopID]
	if !ok || len(byTransfers) == 0 {
		return 0, 0, false
	}

	bestTransfers := -1
	var bestTime time.Duration
	for _, transfers := range l.TransferCounts(stopID) {
		travelTime := byTransfers[transfers]
		if bestTransfers == -1 || travelTime < bestTime {
			bestTransfers = transfers
			bestTime = travelTime
		}
	}

	return bestTime, bestTransfers, true
}

// TransferCounts lists the transfer counts a stop has labels for, ascending.
func (l Labels) TransferCounts(stopID string) []int {
	counts := make([]int, 0, len(l[stopID]))
	for transfers := range l[stopID] {
		counts = append(counts, transfers)
	}
	slices.Sort(counts)
	return counts
}

// StopIDs lists labelled stops in ID order.
func (l Labels) StopIDs() []string {
	ids := make([]string, 0, len(l))
	for stopID := range l {
		ids = append(ids, stopID)
	}
	slices.Sort(ids)
	return ids
}

func (l Labels) Len() int {
	count := 0
	for _, byTransfers := range l {
		count += len(byTransfers)
	}
	return count
}
