package aggregate

import (
	"time"
)

// DefaultLastActiveThresholds are the horizons of the last-active report, longest first
var DefaultLastActiveThresholds = []int{60, 30, 7, 3, 1}

// LastActive counts, for each threshold in days, how many entities were last
// seen within that many days of now. Thresholds are evaluated independently
// so the counts are cumulative: an entity active within 1 day also counts
// toward every longer horizon. Nil thresholds use DefaultLastActiveThresholds.
func LastActive(now time.Time, lastSeen []time.Time, thresholds []int) []int64 {
	if thresholds == nil {
		thresholds = DefaultLastActiveThresholds
	}
	counts := make([]int64, len(thresholds))
	for _, seen := range lastSeen {
		age := now.Sub(seen)
		for i, days := range thresholds {
			if age <= time.Duration(days)*Day {
				counts[i]++
			}
		}
	}
	return counts
}
