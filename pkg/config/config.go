package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/stats"
)

// ConfigFileEnv names the optional YAML file read before the environment
const ConfigFileEnv = "TALLY_CONFIG_FILE"

// Audit backends
const (
	AuditBackendFilesystem = "filesystem"
	AuditBackendS3         = "s3"
	AuditBackendPostgres   = "postgres"
)

// Stats backends
const (
	StatsBackendMemory   = "memory"
	StatsBackendRedis    = "redis"
	StatsBackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Audit         AuditConfig         `yaml:"audit"`
	Stats         StatsConfig         `yaml:"stats"`
	Aggregator    AggregatorConfig    `yaml:"aggregator"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RateLimit is the number of report requests a client may make per
	// minute; zero disables rate limiting
	RateLimit      int `yaml:"rate_limit"`
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// Addr returns host:port
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// AuditConfig selects and configures the audit shard store
type AuditConfig struct {
	Backend         string `yaml:"backend"` // filesystem, s3, postgres
	Root            string `yaml:"root"`
	PostgresURL     string `yaml:"postgres_url"`
	ReadConcurrency int    `yaml:"read_concurrency"`

	S3Bucket       string `yaml:"s3_bucket"`
	S3Prefix       string `yaml:"s3_prefix"`
	S3Region       string `yaml:"s3_region"`
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`
}

// S3StoreConfig converts the S3 settings for audit.NewS3Store
func (c AuditConfig) S3StoreConfig() audit.S3StoreConfig {
	return audit.S3StoreConfig{
		Bucket:       c.S3Bucket,
		Prefix:       c.S3Prefix,
		Region:       c.S3Region,
		Endpoint:     c.S3Endpoint,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		UsePathStyle: c.S3UsePathStyle,
	}
}

// StatsConfig selects and configures the client and file store statistics backend
type StatsConfig struct {
	Backend     string `yaml:"backend"` // memory, redis, postgres
	PostgresURL string `yaml:"postgres_url"`
	MaxHistory  int    `yaml:"max_history"`

	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`

	CacheEnabled bool          `yaml:"cache_enabled"`
	CacheSize    int           `yaml:"cache_size"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// RedisConfig converts the Redis settings for stats.NewRedisStore
func (c StatsConfig) RedisConfig() stats.RedisConfig {
	return stats.RedisConfig{
		URL:        c.RedisURL,
		Password:   c.RedisPassword,
		DB:         c.RedisDB,
		Prefix:     c.RedisPrefix,
		MaxHistory: c.MaxHistory,
	}
}

// CacheConfig converts the cache settings for stats.NewCachedStore
func (c StatsConfig) CacheConfig() stats.CacheConfig {
	return stats.CacheConfig{
		MaxEntries: c.CacheSize,
		TTL:        c.CacheTTL,
	}
}

// AggregatorConfig configures the statistics aggregation job
type AggregatorConfig struct {
	Schedule             string        `yaml:"schedule"`
	Timeout              time.Duration `yaml:"timeout"`
	InventoryFile        string        `yaml:"inventory_file"`
	InventoryPostgresURL string        `yaml:"inventory_postgres_url"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"`
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Level returns the parsed log level, falling back to info
func (c ObservabilityConfig) Level() observability.LogLevel {
	level, _ := observability.ParseLogLevel(c.LogLevel)
	return level
}

// OTel converts the OpenTelemetry settings for observability.InitOTel
func (c ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.OTelEnabled,
		Endpoint:       c.OTelEndpoint,
		ServiceName:    c.OTelServiceName,
		ServiceVersion: c.OTelServiceVersion,
		Insecure:       c.OTelInsecure,
		SampleRatio:    c.OTelSampleRatio,
	}
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit:       120,
			RateLimitBurst:  20,
		},
		Audit: AuditConfig{
			Backend:         AuditBackendFilesystem,
			Root:            audit.DefaultFileStoreConfig().Root,
			ReadConcurrency: audit.DefaultReadConcurrency,
			S3Prefix:        "audit",
			S3Region:        "us-east-1",
		},
		Stats: StatsConfig{
			Backend:      StatsBackendMemory,
			MaxHistory:   400,
			RedisURL:     "redis://localhost:6379/0",
			RedisPrefix:  "tally:stats",
			CacheEnabled: true,
			CacheSize:    stats.DefaultCacheConfig().MaxEntries,
			CacheTTL:     stats.DefaultCacheConfig().TTL,
		},
		Aggregator: AggregatorConfig{
			Schedule: "@hourly",
			Timeout:  10 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelServiceName:    "tally",
			OTelServiceVersion: "dev",
			OTelInsecure:       true,
			OTelSampleRatio:    1,
		},
	}
}

// LoadConfig loads defaults, then the YAML file named by TALLY_CONFIG_FILE if
// set, then environment variables, and validates the result
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile overlays the settings present in a YAML file
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("TALLY_HOST", s.Host)
	s.Port = getEnv("TALLY_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("TALLY_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("TALLY_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("TALLY_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("TALLY_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.RateLimit = getEnvInt("TALLY_RATE_LIMIT", s.RateLimit)
	s.RateLimitBurst = getEnvInt("TALLY_RATE_LIMIT_BURST", s.RateLimitBurst)

	a := &c.Audit
	a.Backend = getEnv("TALLY_AUDIT_BACKEND", a.Backend)
	a.Root = getEnv("TALLY_AUDIT_ROOT", a.Root)
	a.PostgresURL = getEnv("TALLY_AUDIT_POSTGRES_URL", a.PostgresURL)
	a.ReadConcurrency = getEnvInt("TALLY_AUDIT_READ_CONCURRENCY", a.ReadConcurrency)
	a.S3Bucket = getEnv("TALLY_AUDIT_S3_BUCKET", a.S3Bucket)
	a.S3Prefix = getEnv("TALLY_AUDIT_S3_PREFIX", a.S3Prefix)
	a.S3Region = getEnv("TALLY_AUDIT_S3_REGION", a.S3Region)
	a.S3Endpoint = getEnv("TALLY_AUDIT_S3_ENDPOINT", a.S3Endpoint)
	a.S3AccessKey = getEnv("TALLY_AUDIT_S3_ACCESS_KEY", a.S3AccessKey)
	a.S3SecretKey = getEnv("TALLY_AUDIT_S3_SECRET_KEY", a.S3SecretKey)
	a.S3UsePathStyle = getEnvBool("TALLY_AUDIT_S3_USE_PATH_STYLE", a.S3UsePathStyle)

	st := &c.Stats
	st.Backend = getEnv("TALLY_STATS_BACKEND", st.Backend)
	st.PostgresURL = getEnv("TALLY_STATS_POSTGRES_URL", st.PostgresURL)
	st.MaxHistory = getEnvInt("TALLY_STATS_MAX_HISTORY", st.MaxHistory)
	st.RedisURL = getEnv("TALLY_REDIS_URL", st.RedisURL)
	st.RedisPassword = getEnv("TALLY_REDIS_PASSWORD", st.RedisPassword)
	st.RedisDB = getEnvInt("TALLY_REDIS_DB", st.RedisDB)
	st.RedisPrefix = getEnv("TALLY_REDIS_PREFIX", st.RedisPrefix)
	st.CacheEnabled = getEnvBool("TALLY_CACHE_ENABLED", st.CacheEnabled)
	st.CacheSize = getEnvInt("TALLY_CACHE_SIZE", st.CacheSize)
	st.CacheTTL = getEnvDuration("TALLY_CACHE_TTL", st.CacheTTL)

	ag := &c.Aggregator
	ag.Schedule = getEnv("TALLY_AGGREGATOR_SCHEDULE", ag.Schedule)
	ag.Timeout = getEnvDuration("TALLY_AGGREGATOR_TIMEOUT", ag.Timeout)
	ag.InventoryFile = getEnv("TALLY_INVENTORY_FILE", ag.InventoryFile)
	ag.InventoryPostgresURL = getEnv("TALLY_INVENTORY_POSTGRES_URL", ag.InventoryPostgresURL)

	o := &c.Observability
	o.LogLevel = getEnv("TALLY_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("TALLY_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("TALLY_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("TALLY_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("TALLY_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("TALLY_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("TALLY_OTEL_INSECURE", o.OTelInsecure)
	o.OTelSampleRatio = getEnvFloat("TALLY_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}
	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit and burst must not be negative")
	}

	switch c.Audit.Backend {
	case AuditBackendFilesystem:
		if c.Audit.Root == "" {
			return fmt.Errorf("audit root directory is required for filesystem backend")
		}
	case AuditBackendS3:
		if c.Audit.S3Bucket == "" {
			return fmt.Errorf("audit S3 bucket is required for s3 backend")
		}
	case AuditBackendPostgres:
		if c.Audit.PostgresURL == "" {
			return fmt.Errorf("audit PostgreSQL URL is required for postgres backend")
		}
	default:
		return fmt.Errorf("invalid audit backend: %s", c.Audit.Backend)
	}
	if c.Audit.ReadConcurrency < 1 {
		return fmt.Errorf("audit read concurrency must be at least 1")
	}

	switch c.Stats.Backend {
	case StatsBackendMemory:
	case StatsBackendRedis:
		if c.Stats.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis stats backend")
		}
	case StatsBackendPostgres:
		if c.Stats.PostgresURL == "" {
			return fmt.Errorf("stats PostgreSQL URL is required for postgres backend")
		}
	default:
		return fmt.Errorf("invalid stats backend: %s", c.Stats.Backend)
	}
	if c.Stats.CacheEnabled && c.Stats.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when caching is enabled")
	}

	if c.Aggregator.Schedule == "" {
		return fmt.Errorf("aggregator schedule is required")
	}

	if _, err := observability.ParseLogLevel(c.Observability.LogLevel); err != nil {
		return err
	}
	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OTel endpoint is required when OTel is enabled")
	}
	if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("OTel sample ratio must be between 0 and 1")
	}

	return nil
}

// getEnv returns an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
