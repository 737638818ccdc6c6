// Package cache is a keyed query cache with optimistic overlays.
//
// Every entry keeps the last value the store returned (its base) plus an
// ordered log of pending optimistic patches. Readers see the base with the
// pending patches applied in the order they were issued, so removing one
// failed patch never disturbs the others.
package cache

import (
	"fmt"
	"sync"
)

// AnonymousOwner stands in for a missing owner in cache keys.
const AnonymousOwner = "anon"

// Key identifies one cached query.
type Key struct {
	Kind   string
	Owner  string
	Filter string
}

// KeyFor builds the key of a query. An empty owner maps to AnonymousOwner.
func KeyFor(kind, owner, filter string) Key {
	if owner == "" {
		owner = AnonymousOwner
	}
	return Key{Kind: kind, Owner: owner, Filter: filter}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Owner, k.Filter)
}

// KeyPrefix selects every filter variant of a kind for one owner.
type KeyPrefix struct {
	Kind  string
	Owner string
}

// Prefix builds the prefix matching all keys of kind for owner.
func Prefix(kind, owner string) KeyPrefix {
	if owner == "" {
		owner = AnonymousOwner
	}
	return KeyPrefix{Kind: kind, Owner: owner}
}

func (p KeyPrefix) Matches(k Key) bool {
	return k.Kind == p.Kind && k.Owner == p.Owner
}

// PatchID identifies one optimistic patch across every key it touched.
type PatchID uint64

// PatchFunc derives the optimistic value of key from its current value. It
// must not mutate its input.
type PatchFunc[V any] func(key Key, current V) V

type pending[V any] struct {
	id        PatchID
	apply     PatchFunc[V]
	settled   bool
	settledAt uint64
}

type entry[V any] struct {
	base     V
	hasBase  bool
	gen      uint64
	inflight bool
	stale    bool
	patches  []*pending[V]
}

func (e *entry[V]) visible(key Key, clone func(V) V) V {
	v := clone(e.base)
	for _, p := range e.patches {
		v = p.apply(key, v)
	}
	return v
}

// Cache holds query results of type V. It is safe for concurrent use; every
// operation runs under one mutex, which defines the issue order of patches.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[Key]*entry[V]
	lastID  PatchID
	clone   func(V) V
}

// New returns an empty cache. clone must deep-copy a value so readers never
// share state with the cache.
func New[V any](clone func(V) V) *Cache[V] {
	return &Cache[V]{entries: make(map[Key]*entry[V]), clone: clone}
}

// Get returns the visible value of key and whether a server value is cached.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.hasBase {
		var zero V
		return zero, false
	}
	return e.visible(key, c.clone), true
}

// Fresh reports whether key holds a server value that has not been invalidated.
func (c *Cache[V]) Fresh(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.hasBase && !e.stale
}

// Keys lists the cached keys under prefix.
func (c *Cache[V]) Keys(prefix KeyPrefix) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for k := range c.entries {
		if prefix.Matches(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Snapshot captures the visible value of every cached key under prefix.
func (c *Cache[V]) Snapshot(prefix KeyPrefix) map[Key]V {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := make(map[Key]V)
	for k, e := range c.entries {
		if prefix.Matches(k) && e.hasBase {
			snap[k] = e.visible(k, c.clone)
		}
	}
	return snap
}

// Patch appends an optimistic patch to every cached key under prefix and
// returns its id. Keys without a server value are left alone.
func (c *Cache[V]) Patch(prefix KeyPrefix, fn PatchFunc[V]) PatchID {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastID++
	id := c.lastID
	for k, e := range c.entries {
		if prefix.Matches(k) && e.hasBase {
			e.patches = append(e.patches, &pending[V]{id: id, apply: fn})
		}
	}
	return id
}

// Apply cancels in-flight fetches under prefix, snapshots the visible values
// and appends fn as a patch, all under one lock. The snapshot is exactly the
// state fn is applied on top of.
func (c *Cache[V]) Apply(prefix KeyPrefix, fn PatchFunc[V]) (map[Key]V, PatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastID++
	id := c.lastID
	snap := make(map[Key]V)
	for k, e := range c.entries {
		if !prefix.Matches(k) {
			continue
		}
		if e.inflight {
			e.gen++
			e.inflight = false
		}
		if e.hasBase {
			snap[k] = e.visible(k, c.clone)
			e.patches = append(e.patches, &pending[V]{id: id, apply: fn})
		}
	}
	return snap, id
}

// Settle marks a patch as confirmed by the store. It stays visible until a
// fetch begun after this call lands.
func (c *Cache[V]) Settle(id PatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		for _, p := range e.patches {
			if p.id == id {
				p.settled = true
				p.settledAt = e.gen
			}
		}
	}
}

// Rollback drops a patch everywhere. Other pending patches keep applying on
// top of the base in their original order.
func (c *Cache[V]) Rollback(id PatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		e.patches = removePatch(e.patches, func(p *pending[V]) bool { return p.id == id })
	}
}

// Pending returns the number of unconfirmed or not yet refetched patches on key.
func (c *Cache[V]) Pending(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return len(e.patches)
	}
	return 0
}

// Invalidate marks every key under prefix stale and returns them.
func (c *Cache[V]) Invalidate(prefix KeyPrefix) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for k, e := range c.entries {
		if prefix.Matches(k) {
			e.stale = true
			keys = append(keys, k)
		}
	}
	return keys
}

// Cancel abandons in-flight fetches under prefix. Their results will be
// discarded by CompleteFetch.
func (c *Cache[V]) Cancel(prefix KeyPrefix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if prefix.Matches(k) && e.inflight {
			e.gen++
			e.inflight = false
		}
	}
}

// BeginFetch registers a fetch for key and returns its generation token.
func (c *Cache[V]) BeginFetch(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	e.gen++
	e.inflight = true
	return e.gen
}

// CompleteFetch stores a fetch result. It reports false and keeps the current
// value when token is no longer the latest generation of key.
func (c *Cache[V]) CompleteFetch(key Key, token uint64, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || token != e.gen {
		return false
	}
	e.base = c.clone(value)
	e.hasBase = true
	e.inflight = false
	e.stale = false
	e.patches = removePatch(e.patches, func(p *pending[V]) bool {
		return p.settled && token > p.settledAt
	})
	return true
}

// AbortFetch ends a failed fetch without touching the cached value.
func (c *Cache[V]) AbortFetch(key Key, token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.gen == token {
		e.inflight = false
	}
}

func removePatch[V any](patches []*pending[V], drop func(*pending[V]) bool) []*pending[V] {
	kept := patches[:0]
	for _, p := range patches {
		if !drop(p) {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(patches); i++ {
		patches[i] = nil
	}
	return kept
}
