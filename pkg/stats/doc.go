// Package stats holds the pre-aggregated client and file store statistics that
// client-side report plugins read.
//
// The Aggregator computes snapshots from a client inventory on a schedule
// (see cmd/tally-aggregator) and appends them to a Store. Report plugins only
// read: ClientStats.History for breakdown and last-active snapshots, and
// FileStoreStats.Files for file size and client count distributions.
//
// # Stores
//
// MemoryStore: in-process, for tests and single-binary setups
// RedisStore: JSON snapshots in Redis lists
// DBStore: PostgreSQL tables
// CachedStore: expiring LRU in front of any of the above
package stats
