package scenestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"scenecore/pkg/scene"
)

// SQLite persists scenes as JSON payloads in a single local table.
type SQLite struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLite opens (or creates) a SQLite-backed scene store at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "scenecore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create scenes table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context, id string) (*scene.SerializedScene, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM scenes WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scene.NotFoundError{Kind: "scene", ID: id}
	}
	if err != nil {
		return nil, scene.IOError{Op: "load scene", Err: err}
	}
	var out scene.SerializedScene
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, scene.SchemaError{Violations: []string{fmt.Sprintf("scene %s: %v", id, err)}}
	}
	return &out, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, id string, sc *scene.SerializedScene) error {
	if sc == nil {
		return scene.SchemaError{Violations: []string{"scene payload is nil"}}
	}
	payload, err := json.Marshal(sc)
	if err != nil {
		return scene.IOError{Op: "save scene", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenes(id,payload,updated_at) VALUES(?,?,?)
		 ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		id, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return scene.IOError{Op: "save scene", Err: err}
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return false, scene.IOError{Op: "delete scene", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, scene.IOError{Op: "delete scene", Err: err}
	}
	return n > 0, nil
}

// List implements Store.
func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM scenes ORDER BY id`)
	if err != nil {
		return nil, scene.IOError{Op: "list scenes", Err: err}
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, scene.IOError{Op: "list scenes", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, scene.IOError{Op: "list scenes", Err: err}
	}
	return ids, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLite) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *SQLite) Path() string { return s.path }
