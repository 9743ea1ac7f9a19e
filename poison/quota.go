package poison

import (
	"math"
	"sort"
)

// ClassQuota tracks, per target class, how many samples may still be
// transformed. Counts never go negative and only ever decrease.
//
// One ClassQuota is owned by a strategy and shared by the train and test
// passes: samples poisoned during the train pass use up the budget that the
// test pass would otherwise draw from.
type ClassQuota struct {
	remaining map[int]int
}

// ComputeQuota counts the target classes in labels and converts each count
// to floor(count*ratio), capped at the count itself. A NaN or negative
// ratio yields zero quotas. Classes outside targets
// are absent from the result; targets missing from labels get quota 0.
func ComputeQuota(labels []int, targets []int, ratio float64) *ClassQuota {
	counts := make(map[int]int, len(targets))
	for _, c := range targets {
		counts[c] = 0
	}
	for _, l := range labels {
		if _, ok := counts[l]; ok {
			counts[l]++
		}
	}
	if !(ratio >= 0) {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	for c, n := range counts {
		counts[c] = int(math.Floor(float64(n) * ratio))
	}
	return &ClassQuota{remaining: counts}
}

// Remaining returns the remaining budget of class and whether class is a target.
func (q *ClassQuota) Remaining(class int) (int, bool) {
	n, ok := q.remaining[class]
	return n, ok
}

// Take consumes one unit of budget for class. It returns false, leaving the
// quota untouched, when class is not a target or its budget is exhausted.
func (q *ClassQuota) Take(class int) bool {
	n, ok := q.remaining[class]
	if !ok || n <= 0 {
		return false
	}
	q.remaining[class] = n - 1
	return true
}

// Total returns the sum of all remaining budgets.
func (q *ClassQuota) Total() int {
	total := 0
	for _, n := range q.remaining {
		total += n
	}
	return total
}

// Classes returns the target classes in ascending order.
func (q *ClassQuota) Classes() []int {
	classes := make([]int, 0, len(q.remaining))
	for c := range q.remaining {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

// Snapshot returns a copy of the remaining budgets.
func (q *ClassQuota) Snapshot() map[int]int {
	out := make(map[int]int, len(q.remaining))
	for c, n := range q.remaining {
		out[c] = n
	}
	return out
}
