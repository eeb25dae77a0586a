package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// GrantCache remembers which accounts each provider authorized, so a later
// run may reuse the grant instead of prompting again. The file is written
// with 0600 permissions.
type GrantCache struct {
	path string
	mu   sync.Mutex
}

// NewGrantCache creates a cache backed by the file at path.
func NewGrantCache(path string) *GrantCache {
	return &GrantCache{path: path}
}

// Load returns the cached accounts for providerID.
func (g *GrantCache) Load(providerID string) ([]string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	accounts, ok := g.read()[providerID]
	if !ok || len(accounts) == 0 {
		return nil, false
	}
	return append([]string(nil), accounts...), true
}

// Save records accounts as the grant for providerID.
func (g *GrantCache) Save(providerID string, accounts []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.read()
	m[providerID] = append([]string(nil), accounts...)
	return g.write(m)
}

// Clear forgets the grant for providerID.
func (g *GrantCache) Clear(providerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.read()
	if _, ok := m[providerID]; !ok {
		return nil
	}
	delete(m, providerID)
	return g.write(m)
}

// ClearAll removes the cache file.
func (g *GrantCache) ClearAll() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	err := os.Remove(g.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// read returns an empty map (never nil) on any error.
func (g *GrantCache) read() map[string][]string {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return make(map[string][]string)
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string][]string)
	}
	return m
}

func (g *GrantCache) write(m map[string][]string) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(g.path, data, 0o600)
}
