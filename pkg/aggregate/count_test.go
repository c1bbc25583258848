package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCountBuckets(t *testing.T) {
	tests := []struct {
		value int64
		want  int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{4, 1},
		{5, 2},
		{19, 3},
		{20, 4},
		{99, 5},
		{100, 6},
		{5000, 6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClientCountBuckets.Index(tt.value), "value %d", tt.value)
	}
}

func TestClientCountBuckets_Series(t *testing.T) {
	series := ClientCountBuckets.Series(ClientCountBuckets.Count([]int64{1}))
	require.Len(t, series, 7)

	labels := []string{"0", "1", "5", "10", "20", "50", "100"}
	xs := []float64{0, 1, 5, 10, 20, 50, 100}
	for i, s := range series {
		assert.Equal(t, labels[i], s.Label)
		require.Len(t, s.Points, 1)
		assert.Equal(t, xs[i], s.Points[0].X)
		if i == 1 {
			assert.Equal(t, 1.0, s.Points[0].Y)
		} else {
			assert.Equal(t, 0.0, s.Points[0].Y)
		}
	}
}
