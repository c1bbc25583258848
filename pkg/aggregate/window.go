package aggregate

import (
	"math"
	"time"

	"github.com/platinummonkey/tally/pkg/charts"
)

// Day is the width of one calendar-free day bucket
const Day = 24 * time.Hour

// Week is the width of one week bucket
const Week = 7 * Day

// Windower assigns timestamps to Count trailing buckets of Width ending at End.
// Bucket indexes run from -Count (oldest) to -1 (the bucket ending at End).
type Windower struct {
	End   time.Time
	Width time.Duration
	Count int
}

// NewDayWindower returns a windower of count one-day buckets ending at end
func NewDayWindower(end time.Time, count int) *Windower {
	return &Windower{End: end, Width: Day, Count: count}
}

// NewWeekWindower returns a windower of count one-week buckets ending at end
func NewWeekWindower(end time.Time, count int) *Windower {
	return &Windower{End: end, Width: Week, Count: count}
}

// Start returns the beginning of the oldest bucket
func (w *Windower) Start() time.Time {
	return w.End.Add(-time.Duration(w.Count) * w.Width)
}

// Index returns floor((t - End) / Width) and whether it falls in [-Count, -1]
func (w *Windower) Index(t time.Time) (int, bool) {
	idx := int(math.Floor(float64(t.Sub(w.End)) / float64(w.Width)))
	if idx < -w.Count || idx > -1 {
		return 0, false
	}
	return idx, true
}

// WindowCounts collects zero-filled per-bucket counts
type WindowCounts struct {
	w      *Windower
	counts []int64
}

// NewCounts returns an empty tally over the windower's buckets
func (w *Windower) NewCounts() *WindowCounts {
	return &WindowCounts{w: w, counts: make([]int64, w.Count)}
}

// Add counts t if it falls inside the window and reports whether it did
func (b *WindowCounts) Add(t time.Time) bool {
	idx, ok := b.w.Index(t)
	if !ok {
		return false
	}
	b.counts[idx+b.w.Count]++
	return true
}

// Values returns counts in bucket order -Count..-1
func (b *WindowCounts) Values() []int64 {
	out := make([]int64, len(b.counts))
	copy(out, b.counts)
	return out
}

// Points returns exactly Count points with x = -Count..-1
func (b *WindowCounts) Points() []charts.Point2D {
	points := make([]charts.Point2D, len(b.counts))
	for i, c := range b.counts {
		points[i] = charts.Point2D{X: float64(i - b.w.Count), Y: float64(c)}
	}
	return points
}
