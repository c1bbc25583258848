package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const maxLineSize = 4 * 1024 * 1024

// FileStore stores each monthly shard as a JSONL file
type FileStore struct {
	root string
	mu   sync.Mutex
}

// FileStoreConfig configures the file store
type FileStoreConfig struct {
	Root string // Directory holding the shard files
}

// DefaultFileStoreConfig returns default configuration
func DefaultFileStoreConfig() FileStoreConfig {
	return FileStoreConfig{
		Root: "/var/lib/tally/audit",
	}
}

// NewFileStore creates a file-backed shard store
func NewFileStore(config FileStoreConfig) (*FileStore, error) {
	if config.Root == "" {
		config.Root = DefaultFileStoreConfig().Root
	}

	// Create root directory if it doesn't exist
	if err := os.MkdirAll(config.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit shard directory: %w", err)
	}

	return &FileStore{root: config.Root}, nil
}

// Backend returns "filesystem"
func (s *FileStore) Backend() string { return "filesystem" }

// ShardPath returns the file holding the shard of period
func (s *FileStore) ShardPath(period Period) string {
	return filepath.Join(s.root, fmt.Sprintf("audit-%s.jsonl", period))
}

// Append writes events to the shard files of their timestamps
func (s *FileStore) Append(ctx context.Context, events ...Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byPeriod := make(map[Period][]Event)
	var order []Period
	for _, e := range events {
		p := PeriodOf(e.Timestamp)
		if _, ok := byPeriod[p]; !ok {
			order = append(order, p)
		}
		byPeriod[p] = append(byPeriod[p], e)
	}

	for _, p := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.appendShard(p, byPeriod[p]); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) appendShard(period Period, events []Event) error {
	file, err := os.OpenFile(s.ShardPath(period), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit shard %s: %w", period, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for i := range events {
		if err := encoder.Encode(&events[i]); err != nil {
			return fmt.Errorf("failed to write audit event: %w", err)
		}
	}

	return file.Sync()
}

// ReadShard decodes the shard file of period
func (s *FileStore) ReadShard(ctx context.Context, period Period) ([]Event, error) {
	file, err := os.Open(s.ShardPath(period))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrShardNotFound
		}
		return nil, fmt.Errorf("failed to open audit shard %s: %w", period, err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("failed to decode audit shard %s line %d: %w", period, line, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit shard %s: %w", period, err)
	}

	return events, nil
}

// Periods lists the periods that have a shard file, oldest first
func (s *FileStore) Periods() ([]Period, error) {
	files, err := filepath.Glob(filepath.Join(s.root, "audit-*.jsonl"))
	if err != nil {
		return nil, err
	}

	var periods []Period
	for _, f := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(f), "audit-"), ".jsonl")
		p, err := ParsePeriod(name)
		if err != nil {
			continue
		}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start().Before(periods[j].Start())
	})
	return periods, nil
}
