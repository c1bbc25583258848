package audit

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrShardNotFound is returned by a ShardStore for a month that holds no shard.
// Readers treat it as an empty shard.
var ErrShardNotFound = errors.New("audit shard not found")

// ShardStore provides access to the monthly audit log shards
type ShardStore interface {
	// ReadShard returns every event of the period in write order
	ReadShard(ctx context.Context, period Period) ([]Event, error)
}

// Appender is implemented by stores that accept new events
type Appender interface {
	Append(ctx context.Context, events ...Event) error
}

// Store is a ShardStore that also accepts writes
type Store interface {
	ShardStore
	Appender
}

// Named is implemented by stores that report a backend name for metrics and tracing
type Named interface {
	Backend() string
}

// BackendName returns the backend name of a store, or "custom"
func BackendName(s ShardStore) string {
	if n, ok := s.(Named); ok {
		return n.Backend()
	}
	return "custom"
}

// MemoryStore keeps shards in memory
type MemoryStore struct {
	mu     sync.RWMutex
	shards map[Period][]Event
	errs   map[Period]error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shards: make(map[Period][]Event),
		errs:   make(map[Period]error),
	}
}

// Backend returns "memory"
func (s *MemoryStore) Backend() string { return "memory" }

// Append adds events to the shards of their timestamps
func (s *MemoryStore) Append(_ context.Context, events ...Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		p := PeriodOf(e.Timestamp)
		s.shards[p] = append(s.shards[p], e)
	}
	return nil
}

// FailShard makes every subsequent read of period return err
func (s *MemoryStore) FailShard(period Period, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[period] = err
}

// ReadShard returns a copy of the events stored for period
func (s *MemoryStore) ReadShard(ctx context.Context, period Period) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.errs[period]; err != nil {
		return nil, err
	}
	events, ok := s.shards[period]
	if !ok {
		return nil, ErrShardNotFound
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out, nil
}

// Periods returns every period holding a shard, oldest first
func (s *MemoryStore) Periods() []Period {
	s.mu.RLock()
	defer s.mu.RUnlock()

	periods := make([]Period, 0, len(s.shards))
	for p := range s.shards {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start().Before(periods[j].Start())
	})
	return periods
}
