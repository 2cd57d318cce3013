package web

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/csvtable/internal/logging"
	"github.com/JonMunkholm/csvtable/internal/source"
	"github.com/JonMunkholm/csvtable/internal/table"
)

// LoadStatus is the lifecycle of one table's source file.
type LoadStatus string

const (
	StatusPending LoadStatus = "pending"
	StatusLoaded  LoadStatus = "loaded"
	StatusFailed  LoadStatus = "failed"
)

// Catalog holds the raw records of every registered table. Records are
// written once by the loader and shared read-only by all sessions.
type Catalog struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*catalogEntry
}

type catalogEntry struct {
	def     table.Definition
	status  LoadStatus
	records []table.Record
	err     error
	version uint64
}

// Snapshot is a point-in-time copy of one catalog entry.
type Snapshot struct {
	Definition table.Definition
	Status     LoadStatus
	Records    []table.Record
	Err        error
	Version    uint64 // Increases each time records are replaced
}

// NewCatalog creates a catalog with every definition pending.
func NewCatalog(defs []table.Definition) *Catalog {
	c := &Catalog{entries: make(map[string]*catalogEntry, len(defs))}
	for _, def := range defs {
		c.order = append(c.order, def.Info.Key)
		c.entries[def.Info.Key] = &catalogEntry{def: def, status: StatusPending}
	}
	return c
}

// Tables returns table infos in registration order.
func (c *Catalog) Tables() []table.Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]table.Info, len(c.order))
	for i, key := range c.order {
		infos[i] = c.entries[key].def.Info
	}
	return infos
}

// Get returns a snapshot for key.
func (c *Catalog) Get(key string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		Definition: e.def,
		Status:     e.status,
		Records:    e.records,
		Err:        e.err,
		Version:    e.version,
	}, true
}

// Set stores the outcome of loading key. A failed load keeps any records
// from an earlier successful load.
func (c *Catalog) Set(key string, records []table.Record, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.err = err
	if err != nil {
		e.status = StatusFailed
		return
	}
	e.status = StatusLoaded
	e.records = records
	e.version++
}

// Counts returns the number of tables and how many have loaded.
func (c *Catalog) Counts() (total, loaded int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.status == StatusLoaded {
			loaded++
		}
	}
	return len(c.entries), loaded
}

// LoadAll starts reading every table's source from dir in the background.
// The returned channel is closed once every load has finished.
func (c *Catalog) LoadAll(ctx context.Context, dir string, timeout time.Duration) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup

	for _, info := range c.Tables() {
		path := filepath.Join(dir, info.Source)
		loadCtx, cancel := context.WithTimeout(ctx, timeout)
		logger := logging.WithFields(ctx, "table", info.Key, "path", path)
		start := time.Now()

		wg.Add(1)
		source.LoadAsync(loadCtx, path, func(records []table.Record, err error) {
			defer wg.Done()
			defer cancel()

			if err != nil {
				logger.Error("table load failed", "error", err)
			} else {
				logger.Info("table loaded", "rows", len(records), "duration_ms", time.Since(start).Milliseconds())
			}
			c.Set(info.Key, records, err)
		})
	}

	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}
