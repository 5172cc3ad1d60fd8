package reachability

import (
	"container/heap"
	"time"
)

type frontierEntry struct {
	stopID     string
	transfers  int
	travelTime time.Duration

	// trip the stop was reached on and its visit index, empty for origins
	tripID   string
	position int
}

// arrival is what decides how an entry can be expanded: the same stop reached
// on a different trip, or on another visit of the same trip, continues differently.
type arrival struct {
	stopID    string
	transfers int
	tripID    string
	position  int
}

func (e frontierEntry) arrival() arrival {
	return arrival{stopID: e.stopID, transfers: e.transfers, tripID: e.tripID, position: e.position}
}

func (a frontierEntry) less(b frontierEntry) bool {
	if a.travelTime != b.travelTime {
		return a.travelTime < b.travelTime
	}
	if a.transfers != b.transfers {
		return a.transfers < b.transfers
	}
	if a.stopID != b.stopID {
		return a.stopID < b.stopID
	}
	if a.tripID != b.tripID {
		return a.tripID < b.tripID
	}
	return a.position < b.position
}

type frontierHeap []frontierEntry

func (h frontierHeap) Len() int           { return len(h) }
func (h frontierHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h frontierHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) {
	*h = append(*h, x.(frontierEntry))
}

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

type frontier struct {
	entries frontierHeap
}

func (f *frontier) push(entry frontierEntry) {
	heap.Push(&f.entries, entry)
}

func (f *frontier) pop() frontierEntry {
	return heap.Pop(&f.entries).(frontierEntry)
}

func (f *frontier) empty() bool {
	return len(f.entries) == 0
}
