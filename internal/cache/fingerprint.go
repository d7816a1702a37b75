// Package cache implements a content-fingerprint cache for skipping
// unchanged files (spec.md §5 "Ordering guarantees"/"Shared
// resources"): a file's xxhash is compared against its last recorded
// value to decide whether a preprocessor re-run or a re-pack is needed.
// No other package in this repository imports it; the workspace and
// the orchestrator do not consult it.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// entry is one fingerprinted file: its content hash and the mtime it
// was observed at, plus bookkeeping shared with Stats.
type entry struct {
	hash     uint64
	modTime  time.Time
	size     int64
	cachedAt int64 // UnixNano, atomic
}

// Fingerprints is a lock-free, unbounded content-hash cache keyed by
// workspace path string. Unlike the teacher's MetricsCache this has no
// eviction policy: one build's file set is bounded by the project tree,
// so there is no unbounded-growth risk to guard against.
type Fingerprints struct {
	entries sync.Map // map[string]*entry

	hits   int64
	misses int64

	createdAt time.Time
}

// New creates an empty fingerprint cache.
func New() *Fingerprints {
	return &Fingerprints{createdAt: time.Now()}
}

// Changed reports whether path's content differs from what was last
// recorded under Record, comparing by hash rather than mtime alone (spec
// §4.A workspaces may be overlaid from layers whose mtimes aren't
// meaningful, e.g. an in-memory layer). A path never seen before counts
// as changed.
func (c *Fingerprints) Changed(path string, data []byte) bool {
	want := xxhash.Sum64(data)
	val, ok := c.entries.Load(path)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return true
	}
	atomic.AddInt64(&c.hits, 1)
	return val.(*entry).hash != want
}

// Record stores path's current content hash, to be compared against by
// a future Changed call (typically the next `hemtt dev` rebuild).
func (c *Fingerprints) Record(path string, data []byte, modTime time.Time) {
	c.entries.Store(path, &entry{
		hash:     xxhash.Sum64(data),
		modTime:  modTime,
		size:     int64(len(data)),
		cachedAt: time.Now().UnixNano(),
	})
}

// Forget drops path's recorded fingerprint, used when a file is removed
// from the workspace so a later re-add isn't mistaken for "unchanged".
func (c *Fingerprints) Forget(path string) {
	c.entries.Delete(path)
}

// Stats reports cache hit/miss counters for `hemtt dev`'s summary output.
type Stats struct {
	Hits    int64
	Misses  int64
	HitRate float64
	Uptime  time.Duration
}

func (c *Fingerprints) Stats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses
	rate := 0.0
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: misses, HitRate: rate, Uptime: time.Since(c.createdAt)}
}

// Clear removes every recorded fingerprint and resets counters, used
// between independent `hemtt build` invocations that share a process
// (e.g. tests) so one run's cache doesn't leak into the next.
func (c *Fingerprints) Clear() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}
