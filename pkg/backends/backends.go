package backends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/config"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/stats"
)

// OpenDB opens a PostgreSQL connection pool and verifies it
var OpenDB = func(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Set holds the stores opened from configuration
type Set struct {
	Audit audit.ShardStore
	Stats stats.Store

	// Cache is the read cache in front of Stats, nil when disabled
	Cache *stats.CachedStore

	// Health has one check per networked dependency
	Health *observability.HealthChecker

	dbs     map[string]*sql.DB
	closers []func() error
}

// Open opens the audit and statistics stores named by cfg. Postgres
// connections are shared between stores using the same URL.
func Open(ctx context.Context, cfg *config.Config) (*Set, error) {
	s := &Set{
		Health: observability.NewHealthChecker().WithVersion(cfg.Observability.OTelServiceVersion),
		dbs:    make(map[string]*sql.DB),
	}

	if err := s.openAudit(ctx, cfg.Audit); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.openStats(ctx, cfg.Stats); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// DB returns the shared connection for url, opening it on first use
func (s *Set) DB(ctx context.Context, url string) (*sql.DB, error) {
	if db, ok := s.dbs[url]; ok {
		return db, nil
	}

	db, err := OpenDB(ctx, url)
	if err != nil {
		return nil, err
	}
	s.dbs[url] = db
	s.closers = append(s.closers, db.Close)
	s.Health.AddCheck(fmt.Sprintf("postgres-%d", len(s.dbs)), observability.DBCheck(db), true)
	return db, nil
}

func (s *Set) openAudit(ctx context.Context, cfg config.AuditConfig) error {
	switch cfg.Backend {
	case config.AuditBackendFilesystem:
		store, err := audit.NewFileStore(audit.FileStoreConfig{Root: cfg.Root})
		if err != nil {
			return err
		}
		s.Audit = store
		s.Health.AddCheck("audit-filesystem", dirCheck(cfg.Root), true)

	case config.AuditBackendS3:
		store, err := audit.NewS3Store(ctx, cfg.S3StoreConfig())
		if err != nil {
			return fmt.Errorf("failed to open audit S3 store: %w", err)
		}
		s.Audit = store

	case config.AuditBackendPostgres:
		db, err := s.DB(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		store, err := audit.NewDBStore(db)
		if err != nil {
			return err
		}
		s.Audit = store

	default:
		return fmt.Errorf("unsupported audit backend: %s", cfg.Backend)
	}
	return nil
}

func (s *Set) openStats(ctx context.Context, cfg config.StatsConfig) error {
	var store stats.Store

	switch cfg.Backend {
	case config.StatsBackendMemory:
		store = stats.NewMemoryStore(cfg.MaxHistory)

	case config.StatsBackendRedis:
		redisStore, err := stats.NewRedisStore(cfg.RedisConfig())
		if err != nil {
			return fmt.Errorf("failed to open stats redis store: %w", err)
		}
		s.closers = append(s.closers, redisStore.Close)
		s.Health.AddCheck("redis", observability.RedisCheck(redisStore.Client()), true)
		store = redisStore

	case config.StatsBackendPostgres:
		db, err := s.DB(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("failed to open stats database: %w", err)
		}
		dbStore, err := stats.NewDBStore(db)
		if err != nil {
			return err
		}
		store = dbStore

	default:
		return fmt.Errorf("unsupported stats backend: %s", cfg.Backend)
	}

	if cfg.CacheEnabled && cfg.Backend != config.StatsBackendMemory {
		s.Cache = stats.NewCachedStore(store, cfg.CacheConfig())
		store = s.Cache
	}
	s.Stats = store
	return nil
}

// OpenInventory opens the client inventory the aggregator reads: a YAML file
// when configured, otherwise the clients table of a PostgreSQL database
func (s *Set) OpenInventory(ctx context.Context, cfg config.AggregatorConfig) (stats.Inventory, error) {
	switch {
	case cfg.InventoryFile != "":
		return stats.LoadInventoryFile(cfg.InventoryFile)
	case cfg.InventoryPostgresURL != "":
		db, err := s.DB(ctx, cfg.InventoryPostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open inventory database: %w", err)
		}
		return stats.NewDBInventory(db)
	}
	return nil, fmt.Errorf("no client inventory configured")
}

// Close releases every opened connection in reverse order
func (s *Set) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func dirCheck(path string) observability.CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	}
}
