package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis store
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	Prefix     string // Key prefix (default: "tally:stats")
	MaxHistory int    // Snapshots kept per label and metric; <= 0 keeps everything
}

// RedisStore keeps snapshot histories in Redis lists of JSON documents
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxHistory int
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(config RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if config.Password != "" {
		opts.Password = config.Password
	}
	if config.DB > 0 {
		opts.DB = config.DB
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, config.Prefix, config.MaxHistory), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string, maxHistory int) *RedisStore {
	if prefix == "" {
		prefix = "tally:stats"
	}
	return &RedisStore{
		client:     client,
		prefix:     prefix,
		maxHistory: maxHistory,
	}
}

// Client returns the underlying Redis client
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) historyKey(label string, metric Metric) string {
	return fmt.Sprintf("%s:history:%s:%s", s.prefix, label, metric)
}

func (s *RedisStore) filesKey() string {
	return s.prefix + ":files"
}

// History reads the snapshot list of label and metric
func (s *RedisStore) History(ctx context.Context, label string, metric Metric) ([]Snapshot, error) {
	if label == "" {
		return nil, ErrInvalidLabel
	}

	values, err := s.client.LRange(ctx, s.historyKey(label, metric), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	history := make([]Snapshot, 0, len(values))
	for _, v := range values {
		var snap Snapshot
		if err := json.Unmarshal([]byte(v), &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		history = append(history, snap)
	}
	return history, nil
}

// AppendSnapshot pushes snap onto the history list and trims it to MaxHistory
func (s *RedisStore) AppendSnapshot(ctx context.Context, label string, metric Metric, snap Snapshot) error {
	if label == "" {
		return ErrInvalidLabel
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := s.historyKey(label, metric)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.maxHistory > 0 {
		pipe.LTrim(ctx, key, int64(-s.maxHistory), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append snapshot failed: %w", err)
	}
	return nil
}

// Files reads the file record document
func (s *RedisStore) Files(ctx context.Context) ([]FileRecord, error) {
	data, err := s.client.Get(ctx, s.filesKey()).Result()
	if err == redis.Nil {
		return []FileRecord{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var files []FileRecord
	if err := json.Unmarshal([]byte(data), &files); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file records: %w", err)
	}
	return files, nil
}

// ReplaceFiles overwrites the file record document
func (s *RedisStore) ReplaceFiles(ctx context.Context, files []FileRecord) error {
	if files == nil {
		files = []FileRecord{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to marshal file records: %w", err)
	}
	return s.client.Set(ctx, s.filesKey(), data, 0).Err()
}
