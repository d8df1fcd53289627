package scenestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scenecore/pkg/scene"
)

const sceneFileExt = ".scene.json"

// FS stores one pretty-printed JSON file per scene under a local directory.
// Writes go through a temp file and an atomic rename so a crash never leaves
// a half-written scene behind.
type FS struct {
	root string
}

// NewFS returns a filesystem-backed scene store rooted at path, creating it
// if needed.
func NewFS(root string) (*FS, error) {
	if root == "" {
		root = "./scenedata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{root: root}, nil
}

func (s *FS) pathFor(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("empty scene id")
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid scene id %q", id)
	}
	return filepath.Join(s.root, id+sceneFileExt), nil
}

// Load implements Store.
func (s *FS) Load(_ context.Context, id string) (*scene.SerializedScene, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, scene.NotFoundError{Kind: "scene", ID: id}
	}
	if err != nil {
		return nil, scene.IOError{Op: "load scene", Err: err}
	}
	var out scene.SerializedScene
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, scene.SchemaError{Violations: []string{fmt.Sprintf("scene %s: %v", id, err)}}
	}
	return &out, nil
}

// Save implements Store.
func (s *FS) Save(_ context.Context, id string, sc *scene.SerializedScene) error {
	if sc == nil {
		return scene.SchemaError{Violations: []string{"scene payload is nil"}}
	}
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return scene.IOError{Op: "save scene", Err: err}
	}
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return scene.IOError{Op: "save scene", Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return scene.IOError{Op: "save scene", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return scene.IOError{Op: "save scene", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return scene.IOError{Op: "save scene", Err: err}
	}
	return nil
}

// Delete implements Store.
func (s *FS) Delete(_ context.Context, id string) (bool, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, scene.IOError{Op: "delete scene", Err: err}
	}
	return true, nil
}

// List implements Store.
func (s *FS) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, scene.IOError{Op: "list scenes", Err: err}
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), sceneFileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), sceneFileExt))
	}
	sort.Strings(ids)
	return ids, nil
}
