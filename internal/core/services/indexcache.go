package services

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/scribe/internal/logger"
	"github.com/custodia-labs/scribe/internal/vectorindex"
)

// DefaultIndexCacheSize is the number of loaded indexes kept in memory.
const DefaultIndexCacheSize = 3

// IndexLoader reads a persisted index version.
type IndexLoader interface {
	Load(ctx context.Context, srdID string, version int) (*vectorindex.Index, error)
}

type indexKey struct {
	srdID   string
	version int
}

// IndexCache keeps recently used indexes loaded. Entries are stamped with
// their version, so publishing a new version makes the old entry
// unreachable. Concurrent loads of the same version share one read.
type IndexCache struct {
	loader   IndexLoader
	capacity int

	mu    sync.Mutex
	order *list.List // front is most recently used
	items map[indexKey]*list.Element

	group singleflight.Group
}

type indexEntry struct {
	key   indexKey
	index *vectorindex.Index
}

// NewIndexCache creates a cache holding at most capacity indexes.
func NewIndexCache(loader IndexLoader, capacity int) *IndexCache {
	if capacity < 1 {
		capacity = DefaultIndexCacheSize
	}
	return &IndexCache{
		loader:   loader,
		capacity: capacity,
		order:    list.New(),
		items:    make(map[indexKey]*list.Element),
	}
}

// Get returns the index for srdID at version, loading it on a miss.
// Concurrent misses share one load. The load does not inherit the first
// caller's cancellation; each caller stops waiting when its own ctx is done.
func (c *IndexCache) Get(ctx context.Context, srdID string, version int) (*vectorindex.Index, error) {
	key := indexKey{srdID: srdID, version: version}
	if x, ok := c.lookup(key); ok {
		return x, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%s@%d", srdID, version), func() (any, error) {
		if x, ok := c.lookup(key); ok {
			return x, nil
		}
		x, err := c.loader.Load(loadCtx, srdID, version)
		if err != nil {
			return nil, err
		}
		c.add(key, x)
		return x, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("index %s v%d load shared with a concurrent query", srdID, version)
		}
		return res.Val.(*vectorindex.Index), nil
	}
}

// Len returns the number of cached indexes.
func (c *IndexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *IndexCache) lookup(key indexKey) (*vectorindex.Index, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*indexEntry).index, true
}

// add inserts x and drops older versions of the same SRD, then evicts the
// least recently used entries past capacity.
func (c *IndexCache) add(key indexKey, x *vectorindex.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return
	}
	for k, el := range c.items {
		if k.srdID == key.srdID && k.version < key.version {
			c.order.Remove(el)
			delete(c.items, k)
		}
	}
	c.items[key] = c.order.PushFront(&indexEntry{key: key, index: x})

	for c.order.Len() > c.capacity {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*indexEntry).key)
	}
}
