package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AllClients is the label covering every client
const AllClients = "All"

// Kind names a family of client statistics
type Kind string

const (
	KindGRRVersion Kind = "grr_version"
	KindOS         Kind = "os"
	KindOSRelease  Kind = "os_release"
	KindLastActive Kind = "last_active"
)

// Metric identifies one statistic: a kind computed over clients active within
// the last Days days. Days is zero for KindLastActive.
type Metric struct {
	Kind Kind
	Days int
}

// String formats the metric as "<kind>" or "<kind>_<days>d"
func (m Metric) String() string {
	if m.Days == 0 {
		return string(m.Kind)
	}
	return fmt.Sprintf("%s_%dd", m.Kind, m.Days)
}

// ParseMetric parses the form produced by Metric.String
func ParseMetric(s string) (Metric, error) {
	if i := strings.LastIndex(s, "_"); i > 0 && strings.HasSuffix(s, "d") {
		if days, err := strconv.Atoi(s[i+1 : len(s)-1]); err == nil {
			return Metric{Kind: Kind(s[:i]), Days: days}, nil
		}
	}
	switch Kind(s) {
	case KindGRRVersion, KindOS, KindOSRelease, KindLastActive:
		return Metric{Kind: Kind(s)}, nil
	}
	return Metric{}, fmt.Errorf("invalid metric %q", s)
}

// BreakdownWindows are the activity windows breakdown metrics are computed for
var BreakdownWindows = []int{1, 7, 14, 30}

// Snapshot is one computed statistic at a point in time. For breakdowns Counts
// maps an observed value to the number of clients reporting it; for last-active
// it maps the threshold in days to the cumulative client count.
type Snapshot struct {
	Timestamp time.Time        `json:"timestamp"`
	Counts    map[string]int64 `json:"counts"`
}

// Keys returns the snapshot's count keys in ascending order
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FileRecord describes one file in the file store
type FileRecord struct {
	Hash        string `json:"hash"`
	Size        int64  `json:"size"`
	ClientCount int64  `json:"client_count"`
}

// ClientStats is the read side of client statistics
type ClientStats interface {
	// History returns every snapshot of metric for label, oldest first
	History(ctx context.Context, label string, metric Metric) ([]Snapshot, error)
}

// FileStoreStats is the read side of file store statistics
type FileStoreStats interface {
	Files(ctx context.Context) ([]FileRecord, error)
}

// Writer is the write side used by the Aggregator
type Writer interface {
	AppendSnapshot(ctx context.Context, label string, metric Metric, snap Snapshot) error
	ReplaceFiles(ctx context.Context, files []FileRecord) error
}

// Store combines reads and writes
type Store interface {
	ClientStats
	FileStoreStats
	Writer
}

// ErrInvalidLabel is returned for an empty client label
var ErrInvalidLabel = errors.New("client label is required")

// Latest returns the most recent snapshot, or nil for an empty history
func Latest(history []Snapshot) *Snapshot {
	if len(history) == 0 {
		return nil
	}
	return &history[len(history)-1]
}
