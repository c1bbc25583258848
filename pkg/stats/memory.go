package stats

import (
	"context"
	"sync"
)

// MemoryStore keeps statistics in memory
type MemoryStore struct {
	mu         sync.RWMutex
	history    map[string][]Snapshot
	files      []FileRecord
	maxHistory int
}

// NewMemoryStore creates an empty store keeping up to maxHistory snapshots per
// label and metric. maxHistory <= 0 keeps everything.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		history:    make(map[string][]Snapshot),
		maxHistory: maxHistory,
	}
}

func historyKey(label string, metric Metric) string {
	return label + "/" + metric.String()
}

// History returns a copy of the stored snapshots
func (s *MemoryStore) History(_ context.Context, label string, metric Metric) ([]Snapshot, error) {
	if label == "" {
		return nil, ErrInvalidLabel
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.history[historyKey(label, metric)]
	out := make([]Snapshot, len(stored))
	copy(out, stored)
	return out, nil
}

// AppendSnapshot records snap after the existing history
func (s *MemoryStore) AppendSnapshot(_ context.Context, label string, metric Metric, snap Snapshot) error {
	if label == "" {
		return ErrInvalidLabel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey(label, metric)
	h := append(s.history[key], snap)
	if s.maxHistory > 0 && len(h) > s.maxHistory {
		h = h[len(h)-s.maxHistory:]
	}
	s.history[key] = h
	return nil
}

// Files returns a copy of the file records
func (s *MemoryStore) Files(_ context.Context) ([]FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FileRecord, len(s.files))
	copy(out, s.files)
	return out, nil
}

// ReplaceFiles swaps the file records
func (s *MemoryStore) ReplaceFiles(_ context.Context, files []FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = make([]FileRecord, len(files))
	copy(s.files, files)
	return nil
}
