// Package sqlite provides a SQLite-backed graph store.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/nodeforge/internal/graphstore"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	pos_x      REAL NOT NULL DEFAULT 0,
	pos_y      REAL NOT NULL DEFAULT 0,
	params     TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS edges (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	source_handle TEXT NOT NULL DEFAULT 'output',
	target        TEXT NOT NULL,
	target_handle TEXT NOT NULL DEFAULT 'input'
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
`

// DB wraps a sql.DB with graph-store operations.
type DB struct {
	conn *sql.DB
}

// Verify *DB satisfies graphstore.Store at compile time.
var _ graphstore.Store = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
// Transactions take the write lock up front so read-modify-write updates
// never fail on lock upgrade.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("graphstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graphstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("graphstore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
