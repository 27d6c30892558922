package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bluetecnologia/status_admin/internal/models"
)

// Defaults mirror the three dashboard states: up, warning and error.
var Defaults = []models.StatusEntry{
	{ID: 1, Description: "Operacional"},
	{ID: 2, Description: "Instável"},
	{ID: 3, Description: "Fora do ar"},
}

// Catalog is the ordered list of statuses offered by the status select.
// Readers always see a whole snapshot; Replace swaps it atomically.
type Catalog struct {
	mu      sync.RWMutex
	entries []models.StatusEntry
}

func New(entries []models.StatusEntry) (*Catalog, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return &Catalog{entries: clone(entries)}, nil
}

// MustDefault returns a catalog holding Defaults.
func MustDefault() *Catalog {
	c, err := New(Defaults)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate rejects empty catalogs, blank descriptions and duplicates.
func Validate(entries []models.StatusEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("status catalog is empty")
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		d := strings.TrimSpace(e.Description)
		if d == "" {
			return fmt.Errorf("status catalog entry %d has an empty description", i)
		}
		if _, ok := seen[d]; ok {
			return fmt.Errorf("status catalog has duplicate description %q", d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

// Entries returns a copy of the current snapshot in display order.
func (c *Catalog) Entries() []models.StatusEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.entries)
}

// Contains reports whether description is selectable right now.
func (c *Catalog) Contains(description string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Description == description {
			return true
		}
	}
	return false
}

func (c *Catalog) Replace(entries []models.StatusEntry) error {
	if err := Validate(entries); err != nil {
		return err
	}
	next := clone(entries)
	c.mu.Lock()
	c.entries = next
	c.mu.Unlock()
	return nil
}

func clone(entries []models.StatusEntry) []models.StatusEntry {
	out := make([]models.StatusEntry, len(entries))
	copy(out, entries)
	return out
}
