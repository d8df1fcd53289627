package scriptstore

import (
	"context"
	"sort"
	"sync"

	"scenecore/pkg/scene"
)

// Memory is the in-memory script store used by tests and ephemeral
// sessions.
type Memory struct {
	mu      sync.RWMutex
	scripts map[string]Content
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{scripts: make(map[string]Content)}
}

// Read implements Store.
func (m *Memory) Read(_ context.Context, id string) (Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.scripts[id]
	if !ok {
		return Content{}, scene.NotFoundError{Kind: "script", ID: id}
	}
	return c, nil
}

// Write implements Store.
func (m *Memory) Write(_ context.Context, id, code, expectedHash string) (Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.scripts[id]; ok {
		if err := verifyExpected(id, expectedHash, existing.Hash); err != nil {
			return Content{}, err
		}
	}
	c := Content{Code: code, Hash: scene.HashContent(code)}
	m.scripts[id] = c
	return c, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scripts[id]; !ok {
		return false, nil
	}
	delete(m.scripts, id)
	return true, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.scripts))
	for id := range m.scripts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
