package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

// StaticInventory serves a fixed client and file list
type StaticInventory struct {
	ClientList []ClientInfo
	FileList   []FileRecord
}

// Clients returns the static clients
func (s *StaticInventory) Clients(_ context.Context) ([]ClientInfo, error) {
	return s.ClientList, nil
}

// Files returns the static file records
func (s *StaticInventory) Files(_ context.Context) ([]FileRecord, error) {
	return s.FileList, nil
}

type inventoryFile struct {
	Clients []struct {
		ID         string    `yaml:"id"`
		Labels     []string  `yaml:"labels"`
		OS         string    `yaml:"os"`
		OSRelease  string    `yaml:"os_release"`
		GRRVersion string    `yaml:"grr_version"`
		LastSeen   time.Time `yaml:"last_seen"`
	} `yaml:"clients"`
	Files []struct {
		Hash        string `yaml:"hash"`
		Size        int64  `yaml:"size"`
		ClientCount int64  `yaml:"client_count"`
	} `yaml:"files"`
}

// LoadInventoryFile reads a YAML inventory document
func LoadInventoryFile(path string) (*StaticInventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return ParseInventory(data)
}

// ParseInventory decodes a YAML inventory document
func ParseInventory(data []byte) (*StaticInventory, error) {
	var doc inventoryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}

	inv := &StaticInventory{}
	for _, c := range doc.Clients {
		if c.ID == "" {
			return nil, fmt.Errorf("inventory client without id")
		}
		inv.ClientList = append(inv.ClientList, ClientInfo{
			ID:         c.ID,
			Labels:     c.Labels,
			OS:         c.OS,
			OSRelease:  c.OSRelease,
			GRRVersion: c.GRRVersion,
			LastSeen:   c.LastSeen.UTC(),
		})
	}
	for _, f := range doc.Files {
		inv.FileList = append(inv.FileList, FileRecord{Hash: f.Hash, Size: f.Size, ClientCount: f.ClientCount})
	}
	return inv, nil
}

// DBInventory reads the client inventory from PostgreSQL
type DBInventory struct {
	db *sql.DB
}

// NewDBInventory creates a database-backed inventory
func NewDBInventory(db *sql.DB) (*DBInventory, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBInventory{db: db}, nil
}

// Clients selects every known client
func (i *DBInventory) Clients(ctx context.Context) ([]ClientInfo, error) {
	query := `
		SELECT client_id, labels, os, os_release, grr_version, last_seen
		FROM clients
		ORDER BY client_id
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []ClientInfo
	for rows.Next() {
		var c ClientInfo
		var labels []string
		var osName, release, version sql.NullString
		var lastSeen sql.NullTime
		if err := rows.Scan(&c.ID, pq.Array(&labels), &osName, &release, &version, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		c.Labels = labels
		c.OS = osName.String
		c.OSRelease = release.String
		c.GRRVersion = version.String
		if lastSeen.Valid {
			c.LastSeen = lastSeen.Time.UTC()
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}

// Files aggregates file references into one record per hash
func (i *DBInventory) Files(ctx context.Context) ([]FileRecord, error) {
	query := `
		SELECT hash, MAX(size), COUNT(DISTINCT client_id)
		FROM file_references
		GROUP BY hash
		ORDER BY hash
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file references: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Hash, &f.Size, &f.ClientCount); err != nil {
			return nil, fmt.Errorf("failed to scan file reference: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file references: %w", err)
	}
	return files, nil
}
