package table

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Info contains display information about a table.
type Info struct {
	Key    string // Unique identifier: "funding"
	Label  string // Display name: "Startup Funding"
	Source string // File name of the data source, relative to the data dir
}

// Definition contains everything needed to build an engine for a table.
type Definition struct {
	Info    Info
	Columns []Column
}

// ColumnNames returns the column names in display order.
func (d Definition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the descriptor for name.
func (d Definition) Column(name string) (Column, bool) {
	i := slices.IndexFunc(d.Columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return Column{}, false
	}
	return d.Columns[i], true
}

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if the key is empty or already registered.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Info.Key == "" {
		panic("table definition without key")
	}
	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	if def.Info.Label == "" {
		def.Info.Label = def.Info.Key
	}

	registry[def.Info.Key] = def
}

// Get returns a table definition by key.
func Get(key string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered definitions sorted by key.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	slices.SortFunc(result, func(a, b Definition) int {
		return strings.Compare(a.Info.Key, b.Info.Key)
	})
	return result
}

// Count returns the number of registered tables.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Definition)
}
