// Package scriptstore is the external script storage collaborator: script
// source that the codec strips from serialized scenes lives here, addressed
// by the descriptor id and guarded by content hashes so concurrent edits
// surface as conflicts instead of silent overwrites.
package scriptstore

import (
	"context"
	"fmt"
	"os"

	"scenecore/pkg/scene"
)

// Content is a stored script payload together with its content hash.
type Content struct {
	Code string
	Hash string
}

// Store reads and writes externally stored script source.
//
// Write with a non-empty expectedHash fails with scene.ConflictError when
// the stored content no longer hashes to expectedHash; the caller decides
// whether to overwrite (empty expectedHash) or reload. Reading an unknown
// id fails with scene.NotFoundError.
type Store interface {
	Read(ctx context.Context, id string) (Content, error)
	Write(ctx context.Context, id, code, expectedHash string) (Content, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// Driver identifies a concrete script store implementation.
type Driver string

const (
	// DriverMemory is the in-memory implementation (tests, ephemeral).
	DriverMemory Driver = "memory"
	// DriverFilesystem stores scripts under a local directory (default).
	DriverFilesystem Driver = "fs"
	// DriverS3 stores scripts in an S3-compatible bucket.
	DriverS3 Driver = "s3"
)

// OpenFromEnv selects a backend using environment variables, defaulting to
// the filesystem driver.
//
//	SCENECORE_SCRIPT_DRIVER: memory|fs|s3 (default fs)
//	SCENECORE_SCRIPT_FS_ROOT: script directory for the fs driver
//	SCENECORE_SCRIPT_S3_BUCKET: bucket for the s3 driver (required)
func OpenFromEnv(ctx context.Context) (Store, error) {
	driver := os.Getenv("SCENECORE_SCRIPT_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFS(os.Getenv("SCENECORE_SCRIPT_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown script store driver %s", driver)
	}
}

// verifyExpected checks a conditional write precondition against the stored
// content, shared by all backends.
func verifyExpected(id, expectedHash, storedHash string) error {
	if expectedHash == "" || storedHash == "" {
		return nil
	}
	if expectedHash != storedHash {
		return scene.ConflictError{ID: id, Want: expectedHash, Got: storedHash}
	}
	return nil
}
