// Package audit reads the append-only audit log that report plugins aggregate.
//
// # Overview
//
// Audit events are immutable once written and are physically sharded by calendar
// month. Each month lives in its own shard (a JSONL file, an S3 object, or a
// Postgres table depending on the backend). A Reader merges every shard that
// overlaps a requested window into one chronologically ordered stream.
//
// # Shard Stores
//
// FileStore: one JSONL file per month under a root directory
// S3Store: one JSONL object per month under a key prefix
// DBStore: one Postgres table per month (audit_events_YYYY_MM)
// MemoryStore: in-process shards for fixtures and tests
//
// A store returns ErrShardNotFound for a month that was never written. The reader
// treats that as an empty shard; any other error aborts the read.
//
// # Usage Example
//
//	store, err := audit.NewFileStore(audit.FileStoreConfig{Root: "/var/lib/tally/audit"})
//	if err != nil {
//		return err
//	}
//	reader := audit.NewReader(store, audit.ReaderConfig{})
//
//	events, err := reader.ReadAll(ctx, start, 30*24*time.Hour)
//	if err != nil {
//		return err
//	}
//
// # Related Packages
//
//   - pkg/reports: audit-derived report plugins
//   - pkg/config: backend selection
package audit
