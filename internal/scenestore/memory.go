package scenestore

import (
	"context"
	"sort"
	"sync"

	"scenecore/pkg/scene"
)

// Memory is the in-memory scene store.
type Memory struct {
	mu     sync.RWMutex
	scenes map[string]*scene.SerializedScene
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{scenes: make(map[string]*scene.SerializedScene)}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, id string) (*scene.SerializedScene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenes[id]
	if !ok {
		return nil, scene.NotFoundError{Kind: "scene", ID: id}
	}
	return s.Clone(), nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, id string, s *scene.SerializedScene) error {
	if s == nil {
		return scene.SchemaError{Violations: []string{"scene payload is nil"}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenes[id] = s.Clone()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenes[id]; !ok {
		return false, nil
	}
	delete(m.scenes, id)
	return true, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.scenes))
	for id := range m.scenes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
