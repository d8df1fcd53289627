// Package scenestore is the storage collaborator for serialized scenes.
// The engine treats it as an opaque load/save surface; retries, caching and
// any UI concerns belong to the backend, not here.
package scenestore

import (
	"context"
	"fmt"
	"os"

	"scenecore/pkg/scene"
)

// Store persists serialized scenes by id.
//
// Load returns scene.NotFoundError for unknown ids. Implementations hand out
// deep copies; a caller can never mutate stored state through a returned
// scene.
type Store interface {
	Load(ctx context.Context, id string) (*scene.SerializedScene, error)
	Save(ctx context.Context, id string, s *scene.SerializedScene) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// Driver identifies a concrete scene store implementation.
type Driver string

const (
	// DriverMemory keeps scenes in process memory (default).
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one pretty-printed JSON file per scene.
	DriverFilesystem Driver = "fs"
	// DriverSQLite snapshots scenes into a local SQLite database.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres snapshots scenes into Postgres.
	DriverPostgres Driver = "postgres"
)

// OpenFromEnv selects a backend using environment variables.
//
//	SCENECORE_STORE_DRIVER: memory|fs|sqlite|postgres (default memory)
//	SCENECORE_STORE_FS_ROOT: scene directory for the fs driver
//	SCENECORE_SQLITE_PATH: database path for the sqlite driver
//	SCENECORE_POSTGRES_DSN: connection string for the postgres driver
func OpenFromEnv(ctx context.Context) (Store, error) {
	driver := os.Getenv("SCENECORE_STORE_DRIVER")
	if driver == "" {
		driver = string(DriverMemory)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFS(os.Getenv("SCENECORE_STORE_FS_ROOT"))
	case DriverSQLite:
		return NewSQLite(os.Getenv("SCENECORE_SQLITE_PATH"))
	case DriverPostgres:
		return NewPostgres(ctx, os.Getenv("SCENECORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown scene store driver %s", driver)
	}
}
