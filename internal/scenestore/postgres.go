package scenestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"scenecore/pkg/scene"
)

const (
	postgresDriver = "pgx"
	// Default DSN keeps parity with OpenFromEnv defaults while allowing
	// overrides via SCENECORE_POSTGRES_DSN.
	defaultPostgresDSN = "postgres://localhost/scenecore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Postgres persists scenes as JSONB payloads in a single table.
type Postgres struct {
	db *sql.DB
	mu sync.Mutex
}

// NewPostgres opens a Postgres-backed scene store using the provided DSN
// (falls back to a local default) and ensures the scenes table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure scenes table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Load implements Store.
func (s *Postgres) Load(ctx context.Context, id string) (*scene.SerializedScene, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM scenes WHERE id = $1`, id).Scan(&payload)
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
func (s *Postgres) Save(ctx context.Context, id string, sc *scene.SerializedScene) error {
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
		`INSERT INTO scenes(id,payload,updated_at) VALUES($1,$2,$3)
		 ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`,
		id, payload, time.Now().UTC())
	if err != nil {
		return scene.IOError{Op: "save scene", Err: err}
	}
	return nil
}

// Delete implements Store.
func (s *Postgres) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = $1`, id)
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
func (s *Postgres) List(ctx context.Context) ([]string, error) {
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
func (s *Postgres) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Postgres) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
