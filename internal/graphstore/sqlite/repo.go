package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/nodeforge/internal/apperr"
	"github.com/starford/nodeforge/internal/graphstore"
	"github.com/starford/nodeforge/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(s rowScanner) (models.Node, error) {
	var (
		n      models.Node
		params string
	)
	if err := s.Scan(&n.ID, &n.Type, &n.Label, &n.Position.X, &n.Position.Y, &params, &n.UpdatedAt); err != nil {
		return models.Node{}, err
	}
	if err := json.Unmarshal([]byte(params), &n.Params); err != nil {
		return models.Node{}, fmt.Errorf("graphstore: decode params of %s: %w", n.ID, err)
	}
	if n.Params == nil {
		n.Params = models.Params{}
	}
	return n, nil
}

const nodeColumns = `id, type, label, pos_x, pos_y, params, updated_at`

// Create inserts a new node.
func (db *DB) Create(ctx context.Context, n models.Node) error {
	params, err := json.Marshal(n.Params)
	if err != nil {
		return fmt.Errorf("graphstore: encode params: %w", err)
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now().UTC()
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO nodes (`+nodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Type, n.Label, n.Position.X, n.Position.Y, string(params), n.UpdatedAt)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("graphstore: insert node: %w", err)
	}
	return nil
}

// Get returns the node with id.
func (db *DB) Get(ctx context.Context, id string) (models.Node, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Node{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Node{}, fmt.Errorf("graphstore: get node: %w", err)
	}
	return n, nil
}

// Update reads node id, applies fn and writes the result within one
// transaction.
func (db *DB) Update(ctx context.Context, id string, fn graphstore.Updater) (models.Node, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Node{}, fmt.Errorf("graphstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	old, err := scanNode(tx.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Node{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Node{}, fmt.Errorf("graphstore: read node: %w", err)
	}

	next, err := fn(old.Clone())
	if err != nil {
		return models.Node{}, err
	}
	next.ID = id
	next.UpdatedAt = time.Now().UTC()

	params, err := json.Marshal(next.Params)
	if err != nil {
		return models.Node{}, fmt.Errorf("graphstore: encode params: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE nodes
		SET type = ?, label = ?, pos_x = ?, pos_y = ?, params = ?, updated_at = ?
		WHERE id = ?
	`, next.Type, next.Label, next.Position.X, next.Position.Y, string(params), next.UpdatedAt, id)
	if err != nil {
		return models.Node{}, fmt.Errorf("graphstore: update node: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Node{}, fmt.Errorf("graphstore: commit: %w", err)
	}
	return next, nil
}

// Delete removes a node and the edges touching it.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("graphstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE source = ? OR target = ?`, id, id); err != nil {
		return fmt.Errorf("graphstore: delete edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("graphstore: delete node: %w", err)
	}
	return tx.Commit()
}

// List returns every node ordered by id.
func (db *DB) List(ctx context.Context) ([]models.Node, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("graphstore: list nodes: %w", err)
	}
	defer rows.Close()

	var out []models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Connect inserts or replaces an edge.
func (db *DB) Connect(ctx context.Context, e models.Edge) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO edges (id, source, source_handle, target, target_handle)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source        = excluded.source,
			source_handle = excluded.source_handle,
			target        = excluded.target,
			target_handle = excluded.target_handle
	`, e.ID, e.Source, e.SourceHandle, e.Target, e.TargetHandle)
	if err != nil {
		return fmt.Errorf("graphstore: upsert edge: %w", err)
	}
	return nil
}

// Edges returns every edge ordered by id.
func (db *DB) Edges(ctx context.Context) ([]models.Edge, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, source, source_handle, target, target_handle FROM edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("graphstore: list edges: %w", err)
	}
	defer rows.Close()

	var out []models.Edge
	for rows.Next() {
		var e models.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.SourceHandle, &e.Target, &e.TargetHandle); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
