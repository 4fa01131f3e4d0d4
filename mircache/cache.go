// Package mircache is a per-process LRU cache of already-optimized IR, keyed
// by a method identifier hash. It exists so a method reached through more
// than one compile-time call site is optimized once rather than once per
// call site; it is not part of the peephole pass's own contract (§5).
//
// Grounded on the teacher's mirCache.go/mir_cfg_cache.go, both thin wrappers
// over github.com/ethereum/go-ethereum/common/lru.Cache. The teacher ships
// two near-identical caches (MIRCache and mirCFGCache); we keep one.
package mircache

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"

	"github.com/JLLeitschuh/r8-go/ir"
)

// DefaultCapacity mirrors the teacher's MIRCache capacity: smaller than a
// bytecode-level cache since each entry is a whole optimized CFG.
const DefaultCapacity = 1024

// Cache is an LRU of optimized *ir.IRCode keyed by method identifier.
type Cache struct {
	entries *lru.Cache[common.Hash, *ir.IRCode]
}

// New creates a cache with the given capacity. A non-positive capacity falls
// back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{entries: lru.NewCache[common.Hash, *ir.IRCode](capacity)}
}

// Get returns the cached optimized CFG for id, if present.
func (c *Cache) Get(id common.Hash) (*ir.IRCode, bool) {
	return c.entries.Get(id)
}

// Put records code as the optimized CFG for id, evicting the least recently
// used entry if the cache is at capacity.
func (c *Cache) Put(id common.Hash, code *ir.IRCode) {
	if code == nil {
		return
	}
	c.entries.Add(id, code)
}

// Remove drops id from the cache, if present.
func (c *Cache) Remove(id common.Hash) {
	c.entries.Remove(id)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}
