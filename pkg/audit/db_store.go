package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"
)

// undefinedTable is the Postgres error code for a missing relation
const undefinedTable = "42P01"

// DBStore stores each monthly shard in its own PostgreSQL table
type DBStore struct {
	db     *sql.DB
	mu     sync.Mutex
	tables map[Period]bool
}

// NewDBStore creates a database-backed shard store
func NewDBStore(db *sql.DB) (*DBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &DBStore{
		db:     db,
		tables: make(map[Period]bool),
	}, nil
}

// Backend returns "postgres"
func (s *DBStore) Backend() string { return "postgres" }

// TableName returns the table holding the shard of period
func TableName(period Period) string {
	return fmt.Sprintf("audit_events_%04d_%02d", period.Year, int(period.Month))
}

// ensureTable creates the shard table of period if it doesn't exist
func (s *DBStore) ensureTable(ctx context.Context, period Period) error {
	if s.tables[period] {
		return nil
	}

	table := pq.QuoteIdentifier(TableName(period))
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		action VARCHAR(64),
		username VARCHAR(255),
		client_id VARCHAR(64),
		description TEXT,
		urn TEXT,
		flow_name VARCHAR(255)
	);
	CREATE INDEX IF NOT EXISTS %s ON %s(timestamp);
	`, table, pq.QuoteIdentifier("idx_"+TableName(period)+"_timestamp"), table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure audit shard table %s: %w", TableName(period), err)
	}
	s.tables[period] = true
	return nil
}

// Append inserts events into the shard tables of their timestamps
func (s *DBStore) Append(ctx context.Context, events ...Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		p := PeriodOf(e.Timestamp)
		if err := s.ensureTable(ctx, p); err != nil {
			return err
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (timestamp, action, username, client_id, description, urn, flow_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, pq.QuoteIdentifier(TableName(p)))

		_, err := s.db.ExecContext(ctx, query,
			e.Timestamp.UTC(), nullString(string(e.Action)), nullString(e.User),
			nullString(e.Client), nullString(e.Description), nullString(e.URN),
			nullString(e.FlowName),
		)
		if err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}
	return nil
}

// ReadShard selects every event of the shard table of period in insertion order
func (s *DBStore) ReadShard(ctx context.Context, period Period) ([]Event, error) {
	query := fmt.Sprintf(`
		SELECT timestamp, action, username, client_id, description, urn, flow_name
		FROM %s
		ORDER BY id ASC
	`, pq.QuoteIdentifier(TableName(period)))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
			return nil, ErrShardNotFound
		}
		return nil, fmt.Errorf("failed to query audit shard %s: %w", period, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var action, user, client, description, urn, flowName sql.NullString
		if err := rows.Scan(&e.Timestamp, &action, &user, &client, &description, &urn, &flowName); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		e.Action = Action(strings.ToUpper(action.String))
		e.User = user.String
		e.Client = client.String
		e.Description = description.String
		e.URN = urn.String
		e.FlowName = flowName.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}

	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
