// Package config loads the tally server and aggregator configuration.
//
// # Overview
//
// Settings start from built-in defaults, are overlaid by an optional YAML file
// named by TALLY_CONFIG_FILE, and finally by TALLY_* environment variables.
// The result is validated before it is returned.
//
// # Configuration Structure
//
// Server settings:
//
//	TALLY_HOST="0.0.0.0"
//	TALLY_PORT="8080"
//	TALLY_READ_TIMEOUT="15s"
//	TALLY_WRITE_TIMEOUT="30s"
//	TALLY_SHUTDOWN_TIMEOUT="30s"
//
// Audit log settings:
//
//	TALLY_AUDIT_BACKEND="filesystem"  # filesystem, s3, postgres
//	TALLY_AUDIT_ROOT="/var/lib/tally/audit"
//	TALLY_AUDIT_S3_BUCKET="tally-audit"
//	TALLY_AUDIT_S3_ENDPOINT="http://localhost:9000"
//	TALLY_AUDIT_POSTGRES_URL="postgres://localhost/tally?sslmode=disable"
//	TALLY_AUDIT_READ_CONCURRENCY="4"
//
// Statistics settings:
//
//	TALLY_STATS_BACKEND="redis"  # memory, redis, postgres
//	TALLY_REDIS_URL="redis://localhost:6379/0"
//	TALLY_STATS_POSTGRES_URL="postgres://localhost/tally?sslmode=disable"
//	TALLY_CACHE_ENABLED="true"
//	TALLY_CACHE_TTL="5m"
//
// Aggregator settings:
//
//	TALLY_AGGREGATOR_SCHEDULE="@hourly"
//	TALLY_INVENTORY_FILE="/etc/tally/clients.json"
//
// Observability settings:
//
//	TALLY_LOG_LEVEL="info"
//	TALLY_METRICS_ENABLED="true"
//	TALLY_OTEL_ENABLED="false"
//	TALLY_OTEL_ENDPOINT="localhost:4317"
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
//	srv := &http.Server{Addr: cfg.Server.Addr()}
package config
