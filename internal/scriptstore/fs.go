package scriptstore

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
	"time"

	"scenecore/pkg/scene"
)

// FS stores script source under a local directory. Script ids map to
// relative file paths. Writes go through a temp file and an atomic rename
// and record a metadata sidecar (filename + `.meta`) with the content hash
// for external tooling; the payload itself stays authoritative.
type FS struct {
	root string
}

// NewFS returns a filesystem-backed script store rooted at path, creating
// it if needed.
func NewFS(root string) (*FS, error) {
	if root == "" {
		root = "./scriptdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{root: root}, nil
}

// sanitizeID rejects ids that would escape the root.
func sanitizeID(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("empty script id")
	}
	if strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid script id contains '..'")
	}
	if strings.HasPrefix(id, "/") {
		return "", fmt.Errorf("invalid absolute script id")
	}
	clean := filepath.ToSlash(filepath.Clean(id))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid script id traversal")
	}
	return clean, nil
}

func (s *FS) pathFor(id string) (dataPath, metaPath string, err error) {
	clean, err := sanitizeID(id)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, clean)
	metaPath = dataPath + ".meta"
	return
}

type scriptMeta struct {
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Read implements Store.
func (s *FS) Read(_ context.Context, id string) (Content, error) {
	dataPath, _, err := s.pathFor(id)
	if err != nil {
		return Content{}, err
	}
	raw, err := os.ReadFile(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Content{}, scene.NotFoundError{Kind: "script", ID: id}
	}
	if err != nil {
		return Content{}, scene.IOError{Op: "read script", Err: err}
	}
	// The payload is authoritative: the hash is always recomputed so
	// out-of-band edits are reflected. The sidecar is advisory output for
	// external tooling and never consulted here.
	code := string(raw)
	return Content{Code: code, Hash: scene.HashContent(code)}, nil
}

// Write implements Store.
func (s *FS) Write(ctx context.Context, id, code, expectedHash string) (Content, error) {
	dataPath, metaPath, err := s.pathFor(id)
	if err != nil {
		return Content{}, err
	}
	if expectedHash != "" {
		existing, err := s.Read(ctx, id)
		if err == nil {
			if err := verifyExpected(id, expectedHash, existing.Hash); err != nil {
				return Content{}, err
			}
		} else if !errors.As(err, &scene.NotFoundError{}) {
			return Content{}, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return Content{}, scene.IOError{Op: "write script", Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return Content{}, scene.IOError{Op: "write script", Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.WriteString(code); err != nil {
		_ = tmp.Close()
		return Content{}, scene.IOError{Op: "write script", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Content{}, scene.IOError{Op: "write script", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return Content{}, scene.IOError{Op: "write script", Err: err}
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return Content{}, scene.IOError{Op: "write script", Err: err}
	}
	c := Content{Code: code, Hash: scene.HashContent(code)}
	meta := scriptMeta{Hash: c.Hash, Size: int64(len(code)), UpdatedAt: time.Now().UTC()}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(metaPath, b, 0o644)
	}
	return c, nil
}

// Delete implements Store.
func (s *FS) Delete(_ context.Context, id string) (bool, error) {
	dataPath, metaPath, err := s.pathFor(id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dataPath); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.Remove(dataPath); err != nil {
		return false, scene.IOError{Op: "delete script", Err: err}
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List implements Store.
func (s *FS) List(_ context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".meta") {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, scene.IOError{Op: "list scripts", Err: err}
	}
	sort.Strings(ids)
	return ids, nil
}
