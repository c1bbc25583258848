package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetric_String(t *testing.T) {
	tests := []struct {
		metric Metric
		want   string
	}{
		{Metric{Kind: KindOS, Days: 30}, "os_30d"},
		{Metric{Kind: KindGRRVersion, Days: 1}, "grr_version_1d"},
		{Metric{Kind: KindOSRelease, Days: 14}, "os_release_14d"},
		{Metric{Kind: KindLastActive}, "last_active"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.metric.String())

			parsed, err := ParseMetric(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.metric, parsed)
		})
	}

	_, err := ParseMetric("bogus")
	assert.Error(t, err)
}

func TestSnapshot_Keys(t *testing.T) {
	s := Snapshot{Counts: map[string]int64{"Windows": 10, "Linux": 10, "": 1}}
	assert.Equal(t, []string{"", "Linux", "Windows"}, s.Keys())
}

func TestLatest(t *testing.T) {
	assert.Nil(t, Latest(nil))

	history := []Snapshot{
		{Timestamp: time.Unix(1, 0)},
		{Timestamp: time.Unix(2, 0)},
	}
	assert.Equal(t, time.Unix(2, 0), Latest(history).Timestamp)
}
