package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleetbook/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// StateKey is the kv_store key holding the serialised AppState
const StateKey = "fleet_state"

// ErrNoState is returned by Load when nothing has been saved yet
var ErrNoState = errors.New("no stored state")

// Database wraps the SQLite connection
type Database struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*Database, error) {
	// Enable WAL mode and other optimizations via connection string
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite works best with single writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &Database{conn: conn}

	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// FromConn wraps an already opened connection without creating the schema
func FromConn(conn *sql.DB) *Database {
	return &Database{conn: conn}
}

// initialize creates the key-value table
func (db *Database) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// Get returns the raw value stored under key, or sql.ErrNoRows
func (db *Database) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Put overwrites the value stored under key
func (db *Database) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := db.conn.ExecContext(ctx, query, key, string(value), time.Now().UTC())
	return err
}

// Load reads the whole fleet state
func (db *Database) Load(ctx context.Context) (*models.AppState, error) {
	raw, err := db.Get(ctx, StateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var s models.AppState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// Save overwrites the stored state with s
func (db *Database) Save(ctx context.Context, s *models.AppState) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := db.Put(ctx, StateKey, raw); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// GetStats returns database statistics
func (db *Database) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var keys int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&keys); err != nil {
		return nil, err
	}
	stats["keys"] = keys

	var size sql.NullInt64
	var updated sql.NullString
	err := db.conn.QueryRowContext(ctx,
		"SELECT LENGTH(value), updated_at FROM kv_store WHERE key = ?", StateKey,
	).Scan(&size, &updated)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	stats["state_bytes"] = size.Int64
	stats["updated_at"] = updated.String

	return stats, nil
}
