package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// DBStore keeps statistics in PostgreSQL
type DBStore struct {
	db *sql.DB
}

// NewDBStore creates a database-backed store and ensures its tables exist
func NewDBStore(db *sql.DB) (*DBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	store := &DBStore{db: db}
	if err := store.ensureTables(); err != nil {
		return nil, fmt.Errorf("failed to ensure stats tables: %w", err)
	}

	return store, nil
}

// ensureTables creates the stats tables if they don't exist
func (s *DBStore) ensureTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS client_stats (
		id BIGSERIAL PRIMARY KEY,
		label VARCHAR(255) NOT NULL,
		metric VARCHAR(64) NOT NULL,
		captured_at TIMESTAMP WITH TIME ZONE NOT NULL,
		counts JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_client_stats_series ON client_stats(label, metric, captured_at);

	CREATE TABLE IF NOT EXISTS filestore_files (
		hash VARCHAR(128) PRIMARY KEY,
		size BIGINT NOT NULL,
		client_count BIGINT NOT NULL
	);
	`

	_, err := s.db.Exec(query)
	return err
}

// History selects the snapshots of label and metric, oldest first
func (s *DBStore) History(ctx context.Context, label string, metric Metric) ([]Snapshot, error) {
	if label == "" {
		return nil, ErrInvalidLabel
	}

	query := `
		SELECT captured_at, counts
		FROM client_stats
		WHERE label = $1 AND metric = $2
		ORDER BY captured_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, label, metric.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query client stats: %w", err)
	}
	defer rows.Close()

	history := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var counts []byte
		if err := rows.Scan(&snap.Timestamp, &counts); err != nil {
			return nil, fmt.Errorf("failed to scan client stats: %w", err)
		}
		if err := json.Unmarshal(counts, &snap.Counts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal counts: %w", err)
		}
		snap.Timestamp = snap.Timestamp.UTC()
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate client stats: %w", err)
	}

	return history, nil
}

// AppendSnapshot inserts one snapshot row
func (s *DBStore) AppendSnapshot(ctx context.Context, label string, metric Metric, snap Snapshot) error {
	if label == "" {
		return ErrInvalidLabel
	}

	counts, err := json.Marshal(snap.Counts)
	if err != nil {
		return fmt.Errorf("failed to marshal counts: %w", err)
	}

	query := `
		INSERT INTO client_stats (label, metric, captured_at, counts)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, label, metric.String(), snap.Timestamp.UTC(), counts); err != nil {
		return fmt.Errorf("failed to insert client stats: %w", err)
	}
	return nil
}

// Files selects every file record ordered by hash
func (s *DBStore) Files(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash, size, client_count FROM filestore_files ORDER BY hash`)
	if err != nil {
		return nil, fmt.Errorf("failed to query file records: %w", err)
	}
	defer rows.Close()

	files := []FileRecord{}
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Hash, &f.Size, &f.ClientCount); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file records: %w", err)
	}
	return files, nil
}

// ReplaceFiles swaps the file records inside one transaction
func (s *DBStore) ReplaceFiles(ctx context.Context, files []FileRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM filestore_files`); err != nil {
		return fmt.Errorf("failed to clear file records: %w", err)
	}

	if len(files) > 0 {
		hashes := make([]string, len(files))
		sizes := make([]int64, len(files))
		clients := make([]int64, len(files))
		for i, f := range files {
			hashes[i] = f.Hash
			sizes[i] = f.Size
			clients[i] = f.ClientCount
		}

		query := `
			INSERT INTO filestore_files (hash, size, client_count)
			SELECT * FROM unnest($1::text[], $2::bigint[], $3::bigint[])
		`
		if _, err := tx.ExecContext(ctx, query, pq.Array(hashes), pq.Array(sizes), pq.Array(clients)); err != nil {
			return fmt.Errorf("failed to insert file records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file records: %w", err)
	}
	return nil
}
