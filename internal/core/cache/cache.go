package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache is a process-wide memoizer with per-call TTLs. It is constructed once
// in main and injected into every service that performs expensive store or
// market queries, never accessed as a package global.
//
// Lookup and store are individually atomic, but the compute step runs outside
// the lock: two concurrent misses on the same key both invoke the computation
// and the second store wins. Duplicate work is accepted; a half-computed value
// is never observable.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	nowFn   func() time.Time
}

type entry struct {
	computedAt time.Time
	value      any
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		nowFn:   time.Now,
	}
}

// Arg is a named argument used to derive a cache key.
type Arg struct {
	Name  string
	Value any
}

// KeyOf derives a cache key from a function identity and its named arguments.
// Argument names are always included and nothing is hashed or truncated, so
// two calls with different argument values can never share an entry.
func KeyOf(fn string, args ...Arg) string {
	if len(args) == 0 {
		return fn
	}

	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", a.Name, a.Value))
	}
	sort.Strings(parts)

	return fn + "|" + strings.Join(parts, "|")
}

// GetOrCompute returns the cached value for key if it is younger than ttl.
// Otherwise it invokes fn, stores the result, and returns it. A failed
// computation is returned as-is and never stored.
func GetOrCompute[T any](c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if v, ok := c.lookup(key, ttl); ok {
		return v.(T), nil
	}

	result, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}

	c.store(key, result)
	return result, nil
}

func (c *Cache) lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.nowFn().Sub(e.computedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{computedAt: c.nowFn(), value: value}
}

// FlushAll unconditionally clears every entry, regardless of individual TTLs.
func (c *Cache) FlushAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// FlushEvery runs a full flush on a fixed interval until ctx is cancelled.
// Intended to run as a background task supervised from main.
func (c *Cache) FlushEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("[Cache] Starting scheduled flush", "interval", interval)

	for {
		select {
		case <-ticker.C:
			n := c.Len()
			c.FlushAll()
			slog.Info("[Cache] Flushed all entries", "entries", n)
		case <-ctx.Done():
			slog.Info("[Cache] Stopping scheduled flush (context cancelled)")
			return nil
		}
	}
}
