package reports

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/tally/pkg/stats"
)

// DefaultRange is the window applied when a time-ranged report is requested
// without one: the last 30 days ending now.
const DefaultRange = 30 * 24 * time.Hour

// Request asks a plugin for report data. Nil fields are unset.
type Request struct {
	Name        string
	ClientLabel *string
	StartTime   *time.Time
	Duration    *time.Duration
}

// Label returns the client label, or stats.AllClients when unset or empty
func (r Request) Label() string {
	if r.ClientLabel == nil || *r.ClientLabel == "" {
		return stats.AllClients
	}
	return *r.ClientLabel
}

// TimeRange resolves the requested window against now. A missing duration
// defaults to def; a missing start time makes the window end at now. A
// non-positive duration is an ErrInvalidRequest.
func (r Request) TimeRange(now time.Time, def time.Duration) (time.Time, time.Duration, error) {
	d := def
	if r.Duration != nil {
		d = *r.Duration
	}
	if d <= 0 {
		return time.Time{}, 0, invalidRequest("duration must be positive, got %s", d)
	}

	start := now.Add(-d)
	if r.StartTime != nil {
		start = *r.StartTime
	}
	return start.UTC(), d, nil
}

// ParseDuration accepts Go durations ("36h") plus whole days ("30d") and weeks ("2w").
// The result must be positive.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalidRequest("empty duration")
	}

	var d time.Duration
	switch unit := s[len(s)-1]; unit {
	case 'd', 'w':
		n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil {
			return 0, invalidRequest("malformed duration %q", s)
		}
		per := 24 * time.Hour
		if unit == 'w' {
			per *= 7
		}
		if n > math.MaxInt64/int64(per) || n < math.MinInt64/int64(per) {
			return 0, invalidRequest("malformed duration %q", s)
		}
		d = time.Duration(n) * per
	default:
		var err error
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, invalidRequest("malformed duration %q", s)
		}
	}

	if d <= 0 {
		return 0, invalidRequest("duration must be positive, got %q", s)
	}
	return d, nil
}

// ParseTime accepts RFC 3339 timestamps or unix seconds
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalidRequest("malformed time %q", s)
	}
	return t.UTC(), nil
}
