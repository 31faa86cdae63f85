package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tablebook/pkg/clock"

	"golang.org/x/sync/singleflight"
)

// Loader fetches the value for key on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// generation identifies the invalidation state a load started from.
type generation struct {
	epoch uint64
	key   uint64
}

// TTL is a read-through cache with a fixed entry lifetime. Concurrent misses
// for the same key share one load. A load that overlaps an invalidation of its
// key is returned to its callers but never stored.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	gens    map[K]uint64
	epoch   uint64
	ttl     time.Duration
	clock   clock.Clock
	group   *singleflight.Group
	stopCh  chan struct{}
	stopped sync.Once
}

func NewTTL[K comparable, V any](ttl time.Duration, clk clock.Clock) *TTL[K, V] {
	if clk == nil {
		clk = clock.System()
	}
	c := &TTL[K, V]{
		entries: make(map[K]entry[V]),
		gens:    make(map[K]uint64),
		ttl:     ttl,
		clock:   clk,
		group:   &singleflight.Group{},
		stopCh:  make(chan struct{}),
	}

	go c.cleanup()

	return c
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.clock.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// setIfCurrent stores value unless key was invalidated since gen was taken.
func (c *TTL[K, V]) setIfCurrent(key K, value V, gen generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != gen.epoch || c.gens[key] != gen.key {
		return
	}
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

// Invalidate drops key and detaches any load in flight for it, so later
// misses start a fresh load.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	group := c.group
	c.mu.Unlock()

	group.Forget(fmt.Sprint(key))
}

func (c *TTL[K, V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.gens = make(map[K]uint64)
	c.epoch++
	c.group = &singleflight.Group{}
	c.mu.Unlock()
}

func (c *TTL[K, V]) current(key K) (generation, *singleflight.Group) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return generation{epoch: c.epoch, key: c.gens[key]}, c.group
}

// GetOrLoad returns the cached value or calls load once for all concurrent
// callers missing the same key. Load errors are not cached.
func (c *TTL[K, V]) GetOrLoad(ctx context.Context, key K, load Loader[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	gen, group := c.current(key)
	result, err, _ := group.Do(fmt.Sprint(key), func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.setIfCurrent(key, v, gen)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTL[K, V]) cleanup() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := c.clock.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if !now.Before(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// Stop ends the background cleanup. Safe to call more than once.
func (c *TTL[K, V]) Stop() {
	c.stopped.Do(func() { close(c.stopCh) })
}
