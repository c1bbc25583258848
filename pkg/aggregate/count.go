package aggregate

import (
	"strconv"

	"github.com/platinummonkey/tally/pkg/charts"
)

// LowerBuckets is a histogram axis defined by ascending lower edges. A value
// lands in the last bucket whose lower edge is <= the value.
type LowerBuckets struct {
	lower []int64
}

// NewLowerBuckets creates an axis from ascending lower edges
func NewLowerBuckets(lower ...int64) *LowerBuckets {
	edges := make([]int64, len(lower))
	copy(edges, lower)
	return &LowerBuckets{lower: edges}
}

// ClientCountBuckets is the static axis for how many clients hold a file
var ClientCountBuckets = NewLowerBuckets(0, 1, 5, 10, 20, 50, 100)

// Len returns the number of buckets
func (b *LowerBuckets) Len() int {
	return len(b.lower)
}

// Index returns the bucket of v. Values below the first edge land in bucket 0.
func (b *LowerBuckets) Index(v int64) int {
	idx := 0
	for i, edge := range b.lower {
		if v >= edge {
			idx = i
		}
	}
	return idx
}

// Count tallies values per bucket
func (b *LowerBuckets) Count(values []int64) []int64 {
	counts := make([]int64, len(b.lower))
	for _, v := range values {
		counts[b.Index(v)]++
	}
	return counts
}

// Series renders one single-point series per bucket labeled by its lower edge
func (b *LowerBuckets) Series(counts []int64) []charts.Series2D {
	series := make([]charts.Series2D, len(b.lower))
	for i, edge := range b.lower {
		var y int64
		if i < len(counts) {
			y = counts[i]
		}
		series[i] = charts.Series2D{
			Label:  strconv.FormatInt(edge, 10),
			Points: []charts.Point2D{{X: float64(edge), Y: float64(y)}},
		}
	}
	return series
}
