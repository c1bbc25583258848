package aggregate

import (
	"math"
	"strconv"
	"strings"

	"github.com/platinummonkey/tally/pkg/charts"
)

var sizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// SizeBarWidth is the bar width of size distribution stack charts
const SizeBarWidth = 0.2

// sizeTickCount ticks at 32^i bytes
const sizeTickCount = 15

// FormatSize renders a byte count with binary units up to PiB and one decimal,
// dropping a trailing ".0". +Inf renders as "∞".
func FormatSize(bytes float64) string {
	if math.IsInf(bytes, 1) {
		return "∞"
	}

	unit := 0
	for bytes >= 1024 && unit < len(sizeUnits)-1 {
		bytes /= 1024
		unit++
	}

	s := strconv.FormatFloat(bytes, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + " " + sizeUnits[unit]
}

// Buckets is a histogram axis defined by ascending upper edges. The last edge
// should be +Inf so every value lands in a bucket.
type Buckets struct {
	upper []float64
}

// NewBuckets creates an axis from ascending upper edges
func NewBuckets(upper ...float64) *Buckets {
	edges := make([]float64, len(upper))
	copy(edges, upper)
	return &Buckets{upper: edges}
}

// SizeBuckets is the static file size axis: 17 buckets from "0 B - 2 B" to "9.3 GiB - ∞"
var SizeBuckets = NewBuckets(
	2, 50, 100, 1e3, 10e3, 100e3, 500e3,
	1e6, 5e6, 10e6, 50e6, 100e6, 500e6,
	1e9, 5e9, 10e9, math.Inf(1),
)

// Len returns the number of buckets
func (b *Buckets) Len() int {
	return len(b.upper)
}

// Index returns the bucket of v: the first edge strictly greater than v.
// Values past the last edge land in the last bucket.
func (b *Buckets) Index(v float64) int {
	for i, edge := range b.upper {
		if v < edge {
			return i
		}
	}
	return len(b.upper) - 1
}

// Lower returns the lower edge of bucket i (0 for the first bucket)
func (b *Buckets) Lower(i int) float64 {
	if i == 0 {
		return 0
	}
	return b.upper[i-1]
}

// Upper returns the upper edge of bucket i
func (b *Buckets) Upper(i int) float64 {
	return b.upper[i]
}

// Label renders bucket i as "<lower> - <upper>" in human sizes
func (b *Buckets) Label(i int) string {
	return FormatSize(b.Lower(i)) + " - " + FormatSize(b.Upper(i))
}

// X returns the log10 x coordinate of bucket i (0 for the first bucket)
func (b *Buckets) X(i int) float64 {
	if i == 0 {
		return 0
	}
	return math.Log10(b.Lower(i))
}

// Count tallies values per bucket
func (b *Buckets) Count(values []float64) []int64 {
	counts := make([]int64, len(b.upper))
	for _, v := range values {
		counts[b.Index(v)]++
	}
	return counts
}

// Series renders one single-point series per bucket, in bucket order.
// counts may be shorter than Len; missing buckets are zero.
func (b *Buckets) Series(counts []int64) []charts.Series2D {
	series := make([]charts.Series2D, b.Len())
	for i := range series {
		var y int64
		if i < len(counts) {
			y = counts[i]
		}
		series[i] = charts.Series2D{
			Label:  b.Label(i),
			Points: []charts.Point2D{{X: b.X(i), Y: float64(y)}},
		}
	}
	return series
}

// SizeTicks returns the 15 x-axis ticks at 32^i bytes for i = 0..14, spaced
// log10(32) apart on the size bucket axis.
func SizeTicks() []charts.Tick {
	step := math.Log10(32)
	ticks := make([]charts.Tick, sizeTickCount)
	for i := range ticks {
		ticks[i] = charts.Tick{
			X:     float64(i) * step,
			Label: FormatSize(math.Pow(32, float64(i))),
		}
	}
	return ticks
}
