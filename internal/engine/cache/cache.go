// Package cache memoises parse results by content hash so every detector
// that needs a fragment's AST shares one parse.
package cache

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"scriptlint/internal/engine/script/parser"
	"scriptlint/internal/shared/observability"
)

const shardCount = 16

// Key identifies fragment text. The length is kept next to the hash so two
// texts must agree on both to collide.
type Key struct {
	Hash uint64
	Len  int
}

// KeyOf computes the cache key for text.
func KeyOf(text string) Key {
	return Key{Hash: xxhash.Sum64String(text), Len: len(text)}
}

func (k Key) String() string {
	return strconv.FormatUint(k.Hash, 16) + ":" + strconv.Itoa(k.Len)
}

// Cache is a sharded AST cache safe for concurrent use. Concurrent lookups of
// the same text collapse into a single parse. Cached results are shared and
// must be treated as read-only.
type Cache struct {
	shards [shardCount]*LRUCache[Key, *parser.Result]
	group  singleflight.Group
	parses atomic.Int64
}

// New creates a cache. maxEntries <= 0 keeps every result for the lifetime
// of the cache; a positive bound is split across shards and enables LRU
// eviction, for long-lived processes such as watch mode.
func New(maxEntries int) *Cache {
	perShard := 0
	if maxEntries > 0 {
		perShard = (maxEntries + shardCount - 1) / shardCount
	}
	c := &Cache{}
	for i := range c.shards {
		c.shards[i] = NewLRUCache[Key, *parser.Result](perShard)
	}
	return c
}

func (c *Cache) shard(k Key) *LRUCache[Key, *parser.Result] {
	return c.shards[k.Hash%shardCount]
}

// GetOrParse returns the parse result for the fragment text, parsing it at
// most once while the entry is resident.
func (c *Cache) GetOrParse(f parser.Fragment) *parser.Result {
	k := KeyOf(f.Text)
	s := c.shard(k)
	if res, ok := s.Get(k); ok {
		observability.CacheHitsTotal.Inc()
		return res
	}

	v, _, _ := c.group.Do(k.String(), func() (any, error) {
		// A racing caller may have stored the result after our miss.
		if res, ok := s.Peek(k); ok {
			return res, nil
		}
		observability.CacheMissesTotal.Inc()
		start := time.Now()
		res := parser.ParseFragment(f)
		outcome := "ok"
		if !res.OK() {
			outcome = "error"
		}
		observability.ParsingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		c.parses.Add(1)

		if s.Put(k, res) {
			observability.CacheEvictionsTotal.Inc()
		} else {
			observability.CacheEntries.Inc()
		}
		return res, nil
	})
	return v.(*parser.Result)
}

// Get returns a cached result without parsing.
func (c *Cache) Get(text string) (*parser.Result, bool) {
	k := KeyOf(text)
	return c.shard(k).Peek(k)
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

// Parses returns how many parses the cache has performed.
func (c *Cache) Parses() int64 {
	return c.parses.Load()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		observability.CacheEntries.Sub(float64(s.Len()))
		s.Clear()
	}
}
