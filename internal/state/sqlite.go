// ABOUTME: SQLite implementation of the Storage interface using modernc.org/sqlite
// ABOUTME: Persists scoped state partitions as JSON documents with automatic schema creation

package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage on a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) a SQLite-backed storage at path.
// Parent directories are created if needed.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	logger := slog.Default().With("component", "storage")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS state_partitions (
			scope_key  TEXT PRIMARY KEY,
			fields     TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite storage initialized", "path", path)
	return &SQLiteStorage{db: db, logger: logger}, nil
}

// Read loads the fields stored at key. Absent keys return an empty map.
func (s *SQLiteStorage) Read(ctx context.Context, key string) (map[string]json.RawMessage, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM state_partitions WHERE scope_key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying state partition: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decoding state partition %q: %w", key, err)
	}
	return fields, nil
}

// Write stores the fields at key, replacing any previous value.
func (s *SQLiteStorage) Write(ctx context.Context, key string, fields map[string]json.RawMessage) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding state partition %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO state_partitions (scope_key, fields, updated_at)
		VALUES (?, ?, ?)
	`, key, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving state partition: %w", err)
	}

	s.logger.Debug("state partition saved", "key", key, "size", len(raw))
	return nil
}

// Delete removes the partition stored at key.
func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM state_partitions WHERE scope_key = ?`, key); err != nil {
		return fmt.Errorf("deleting state partition: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
