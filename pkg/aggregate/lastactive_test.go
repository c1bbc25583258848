package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLastActive(t *testing.T) {
	var seen []time.Time
	for i := 0; i < 20; i++ {
		seen = append(seen, now.Add(-time.Duration(8+i%10)*Day))
	}
	for i := 0; i < 10; i++ {
		seen = append(seen, now.Add(-90*Day))
	}

	assert.Equal(t, []int64{20, 20, 0, 0, 0}, LastActive(now, seen, nil))
}

func TestLastActive_Cumulative(t *testing.T) {
	seen := []time.Time{
		now,
		now.Add(-2 * Day),
		now.Add(-5 * Day),
		now.Add(-12 * Day),
		now.Add(-45 * Day),
	}

	counts := LastActive(now, seen, DefaultLastActiveThresholds)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, counts)
	for i := 1; i < len(counts); i++ {
		assert.LessOrEqual(t, counts[i], counts[i-1])
	}
}

func TestLastActive_CustomThresholds(t *testing.T) {
	seen := []time.Time{now.Add(-time.Hour), now.Add(-3 * Day)}
	assert.Equal(t, []int64{1, 2}, LastActive(now, seen, []int{1, 3}))
	assert.Equal(t, []int64{0, 0, 0, 0, 0}, LastActive(now, nil, nil))
}
