// Package catalog loads the static agent catalog: display metadata for the
// fleet the dashboard renders. The catalog is configuration, not mission
// state; agents missing from it still stream fine, they just render without
// a friendly name.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Agent is one catalog entry.
type Agent struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Role  string `yaml:"role" json:"role"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Squad string `yaml:"squad,omitempty" json:"squad,omitempty"`
}

type catalogFile struct {
	Agents []Agent `yaml:"agents"`
}

// Catalog is a reloadable view of the agent catalog file.
type Catalog struct {
	path string

	mu     sync.RWMutex
	agents map[string]Agent
}

// Load reads the catalog from path. A missing file yields an empty catalog
// rather than an error; the dashboard degrades to raw agent ids.
func Load(path string) (*Catalog, error) {
	c := &Catalog{
		path:   path,
		agents: make(map[string]Agent),
	}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	agents := make(map[string]Agent, len(f.Agents))
	for _, a := range f.Agents {
		if a.ID == "" {
			continue
		}
		agents[a.ID] = a
	}

	c.mu.Lock()
	c.agents = agents
	c.mu.Unlock()
	return nil
}

// Get looks up one agent by id.
func (c *Catalog) Get(id string) (Agent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.agents[id]
	return a, ok
}

// All returns the catalog sorted by id.
func (c *Catalog) All() []Agent {
	c.mu.RLock()
	out := make([]Agent, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, a)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.agents)
}
